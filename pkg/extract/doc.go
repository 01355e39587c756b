// Package extract pulls named fields out of repeated records in a FRED
// response body without parsing the whole document.
//
// The engine is a two-phase forward scanner. For each call to Next it first
// finds the bounds of the next record (the opening "<record ...>" or
// "<record .../>" and, unless self-closing, the matching "</record>"), then
// searches those bounds for each requested field in the declared order. A
// field is either an attribute of the record's start tag or a child leaf
// element:
//
//	<observation realtime_start="2025-10-04" date="1971-04-01" value="0.85"/>
//	<observation><date>1971-04-01</date><value>0.85</value></observation>
//
// # Basic Usage
//
//	it := extract.NewFieldIter("observation", []string{"date", "value"}, body)
//	for {
//		fields, err := it.Next()
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			// Per-record failure; the iterator has moved past the record.
//			continue
//		}
//		fmt.Println(fields[0], fields[1])
//	}
//
// # Limitations
//
// The search for field i+1 starts where field i ended, so fields must be
// declared in document order. A caller that declares them out of order gets
// ErrFieldNotFound for the out-of-order field. Records must not nest inside
// records of the same name. Values are returned as raw text: no entity
// unescaping, no type conversion. Callers needing real XML semantics should
// use encoding/xml.
//
// A FieldIter is not safe for concurrent use.
package extract
