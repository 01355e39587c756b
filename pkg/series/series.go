// Package series provides typed helpers for the FRED series endpoints on top
// of the raw bytes returned by the client.
package series

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/fred-client/pkg/extract"
)

// DateLayout is the layout FRED uses for observation dates.
const DateLayout = "2006-01-02"

// missingValue is FRED's placeholder for an observation with no value.
const missingValue = "."

// ErrInvalidObservation indicates an observation whose date or value could
// not be converted.
var ErrInvalidObservation = errors.New("invalid observation")

// Observation is a single data point of a series.
type Observation struct {
	Date  time.Time
	Value float64

	// Missing reports that FRED published no value for Date.
	Missing bool
}

// ObservationOptions narrows a series/observations request.
// Zero values are omitted from the fragment.
type ObservationOptions struct {
	Start     time.Time
	End       time.Time
	Units     string // e.g. "lin", "chg", "pch"
	Frequency string // e.g. "m", "q", "a"
	Limit     int
	Offset    int
}

// ObservationsFragment builds the query fragment for the observations of
// seriesID, ready for request.ParseSpec or client.Fetch.
func ObservationsFragment(seriesID string, opts ObservationOptions) string {
	params := url.Values{}
	params.Set("series_id", seriesID)
	if !opts.Start.IsZero() {
		params.Set("observation_start", opts.Start.Format(DateLayout))
	}
	if !opts.End.IsZero() {
		params.Set("observation_end", opts.End.Format(DateLayout))
	}
	if opts.Units != "" {
		params.Set("units", opts.Units)
	}
	if opts.Frequency != "" {
		params.Set("frequency", opts.Frequency)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	return "series/observations?" + params.Encode()
}

// Observations extracts every observation in a series/observations body.
// The first malformed record aborts the extraction.
func Observations(body []byte) ([]Observation, error) {
	it := extract.NewFieldIter("observation", []string{"date", "value"}, body)

	var out []Observation
	for fields, err := range it.All() {
		if err != nil {
			return nil, err
		}
		obs, err := parseObservation(fields[0], fields[1])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", it.Record(), err)
		}
		out = append(out, obs)
	}
	return out, nil
}

func parseObservation(date, value string) (Observation, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: date %q", ErrInvalidObservation, date)
	}
	if value == missingValue {
		return Observation{Date: d, Missing: true}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: value %q", ErrInvalidObservation, value)
	}
	return Observation{Date: d, Value: v}, nil
}

// ObservationCount returns the total number of observations matching the
// request, as reported by the count attribute of the root element. It is
// independent of limit and offset.
func ObservationCount(body []byte) (int, error) {
	fields, err := extract.NewFieldIter("observations", []string{"count"}, body).Next()
	if err == io.EOF {
		return 0, fmt.Errorf("%w: no observations element", ErrInvalidObservation)
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: count %q", ErrInvalidObservation, fields[0])
	}
	return n, nil
}

// ErrorMessage returns the message of a FRED error document
// (<error code="400" message="..."/>), or "" if body holds none.
func ErrorMessage(body []byte) string {
	fields, err := extract.NewFieldIter("error", []string{"message"}, body).Next()
	if err != nil {
		return ""
	}
	return fields[0]
}
