package extract

import (
	"bytes"
	"io"
	"iter"
)

// FieldIter yields the configured fields of each record occurrence in a
// response body, in document order.
type FieldIter struct {
	body     []byte
	openTag  []byte // "<" + record
	closeTag []byte // "</" + record
	fields   []string

	pos   int
	count int
	done  bool
}

// NewFieldIter returns an iterator over the records named record in body,
// extracting fields in the given order. body is shared, not copied, and must
// not be modified while the iterator is in use. An empty record name yields
// no records.
func NewFieldIter(record string, fields []string, body []byte) *FieldIter {
	return &FieldIter{
		body:     body,
		openTag:  []byte("<" + record),
		closeTag: []byte("</" + record),
		fields:   append([]string(nil), fields...),
		done:     record == "",
	}
}

// Next returns the field values of the next record.
//
// It returns io.EOF once no further record exists, and keeps returning it on
// later calls. A *RecordError wrapping ErrFieldNotFound leaves the iterator
// positioned after the failing record, so the caller may continue. A
// *RecordError wrapping ErrUnterminatedRecord exhausts the iterator.
func (it *FieldIter) Next() ([]string, error) {
	if it.done {
		return nil, io.EOF
	}

	// Phase 1: bound the record.
	start := findStartTag(it.body, it.pos, len(it.body), it.openTag)
	if start < 0 {
		it.finish()
		return nil, io.EOF
	}
	it.count++

	nameEnd := start + len(it.openTag)
	tagEnd, selfClosing, ok := scanTagEnd(it.body, nameEnd, len(it.body))
	if !ok {
		it.finish()
		return nil, it.recordError(start, "", ErrUnterminatedRecord)
	}

	contentEnd, recordEnd := tagEnd, tagEnd
	if !selfClosing {
		contentEnd, recordEnd = findEndTag(it.body, tagEnd, len(it.body), it.closeTag)
		if contentEnd < 0 {
			it.finish()
			return nil, it.recordError(start, "", ErrUnterminatedRecord)
		}
	}
	it.pos = recordEnd

	// Phase 2: sequential field search inside the bounds.
	values := make([]string, 0, len(it.fields))
	cursor := nameEnd
	for _, field := range it.fields {
		value, next, found := matchField(it.body, field, cursor, tagEnd, contentEnd, selfClosing)
		if !found {
			return nil, it.recordError(start, field, ErrFieldNotFound)
		}
		values = append(values, value)
		cursor = next
	}

	return values, nil
}

// All returns a range-over-func view of the iterator. Iteration stops at the
// end of the records; per-record errors are yielded and iteration continues
// unless the error exhausted the iterator.
func (it *FieldIter) All() iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for {
			fields, err := it.Next()
			if err == io.EOF {
				return
			}
			if !yield(fields, err) {
				return
			}
		}
	}
}

// Record returns the 1-based index of the most recent record occurrence.
func (it *FieldIter) Record() int {
	return it.count
}

// Offset returns the byte offset the next scan starts from.
func (it *FieldIter) Offset() int {
	return it.pos
}

func (it *FieldIter) finish() {
	it.done = true
	it.pos = len(it.body)
}

func (it *FieldIter) recordError(offset int, field string, err error) error {
	return &RecordError{Record: it.count, Offset: offset, Field: field, Err: err}
}

// findStartTag returns the offset of the first "<name" in body[from:limit]
// that is followed by whitespace, '>' or '/', or -1. A match running into
// limit is returned so the caller reports it as unterminated.
func findStartTag(body []byte, from, limit int, open []byte) int {
	for from < limit {
		idx := bytes.Index(body[from:limit], open)
		if idx < 0 {
			return -1
		}
		at := from + idx
		after := at + len(open)
		if after >= limit || isTagNameEnd(body[after]) {
			return at
		}
		from = at + 1
	}
	return -1
}

// findEndTag returns the offset of "</name" followed by optional whitespace
// and '>', and the offset just past that '>'. Both are -1 when absent.
func findEndTag(body []byte, from, limit int, closeTag []byte) (int, int) {
	for from < limit {
		idx := bytes.Index(body[from:limit], closeTag)
		if idx < 0 {
			return -1, -1
		}
		at := from + idx
		i := at + len(closeTag)
		for i < limit && isSpace(body[i]) {
			i++
		}
		if i < limit && body[i] == '>' {
			return at, i + 1
		}
		from = at + 1
	}
	return -1, -1
}

// scanTagEnd finds the '>' closing a start tag, skipping quoted attribute
// values. It returns the offset just past '>' and whether the tag ends "/>".
func scanTagEnd(body []byte, from, limit int) (int, bool, bool) {
	var quote byte
	for i := from; i < limit; i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1, i > from && body[i-1] == '/', true
		}
	}
	return -1, false, false
}

// matchField looks for field at or after cursor: first among the remaining
// attributes of the record's start tag, then among child elements up to
// contentEnd. It returns the raw value and the offset just past the match.
func matchField(body []byte, field string, cursor, tagEnd, contentEnd int, selfClosing bool) (string, int, bool) {
	if cursor < tagEnd {
		if value, next, ok := matchAttribute(body, field, cursor, tagEnd-1); ok {
			return value, next, true
		}
		cursor = tagEnd
	}
	if selfClosing {
		return "", cursor, false
	}
	return matchElement(body, field, cursor, contentEnd)
}

// matchAttribute walks name=value pairs in body[from:limit], where limit is
// the start tag's '>'. Unquoted and valueless attributes are tolerated.
func matchAttribute(body []byte, field string, from, limit int) (string, int, bool) {
	i := from
	for {
		for i < limit && isSpace(body[i]) {
			i++
		}
		if i >= limit || body[i] == '/' {
			return "", i, false
		}

		nameStart := i
		for i < limit && !isSpace(body[i]) && body[i] != '=' && body[i] != '/' {
			i++
		}
		name := body[nameStart:i]
		if i == nameStart {
			// Stray '=' without a name.
			i++
			continue
		}

		for i < limit && isSpace(body[i]) {
			i++
		}

		var value []byte
		if i < limit && body[i] == '=' {
			i++
			for i < limit && isSpace(body[i]) {
				i++
			}
			if i < limit && (body[i] == '"' || body[i] == '\'') {
				quote := body[i]
				end := bytes.IndexByte(body[i+1:limit], quote)
				if end < 0 {
					return "", limit, false
				}
				value = body[i+1 : i+1+end]
				i += end + 2
			} else {
				valueStart := i
				for i < limit && !isSpace(body[i]) {
					i++
				}
				value = body[valueStart:i]
			}
		}

		if string(name) == field {
			return string(value), i, true
		}
	}
}

// matchElement finds the first <field>text</field> or <field/> in
// body[from:limit] and returns its trimmed text.
func matchElement(body []byte, field string, from, limit int) (string, int, bool) {
	open := []byte("<" + field)
	start := findStartTag(body, from, limit, open)
	if start < 0 {
		return "", from, false
	}

	tagEnd, selfClosing, ok := scanTagEnd(body, start+len(open), limit)
	if !ok {
		return "", from, false
	}
	if selfClosing {
		return "", tagEnd, true
	}

	textEnd, next := findEndTag(body, tagEnd, limit, []byte("</"+field))
	if textEnd < 0 {
		return "", from, false
	}
	return string(bytes.TrimSpace(body[tagEnd:textEnd])), next, true
}

func isTagNameEnd(c byte) bool {
	return isSpace(c) || c == '>' || c == '/'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
