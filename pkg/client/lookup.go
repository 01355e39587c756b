package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLookup is returned when parsing an unrecognized lookup policy.
var ErrUnknownLookup = errors.New("unknown lookup policy")

// Lookup selects which sources Resolve may consult for a request.
type Lookup int

const (
	// FredOnCacheMiss serves from the cache and falls back to FRED on a miss.
	// It is the zero value.
	FredOnCacheMiss Lookup = iota

	// FredOnly always fetches from FRED and stores successful responses.
	FredOnly

	// CacheOnly serves from the cache and never touches the network.
	CacheOnly
)

// String returns the config spelling of l.
func (l Lookup) String() string {
	switch l {
	case FredOnCacheMiss:
		return "fred_on_cache_miss"
	case FredOnly:
		return "fred_only"
	case CacheOnly:
		return "cache_only"
	default:
		return fmt.Sprintf("Lookup(%d)", int(l))
	}
}

// ParseLookup parses "fred_on_cache_miss", "fred_only" or "cache_only".
// Hyphens are accepted in place of underscores and case is ignored.
func ParseLookup(s string) (Lookup, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "fred_on_cache_miss":
		return FredOnCacheMiss, nil
	case "fred_only":
		return FredOnly, nil
	case "cache_only":
		return CacheOnly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLookup, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Lookup) MarshalText() ([]byte, error) {
	if l < FredOnCacheMiss || l > CacheOnly {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLookup, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lookup) UnmarshalText(text []byte) error {
	parsed, err := ParseLookup(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
