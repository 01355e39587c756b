// Package request builds FRED request identities and outbound request descriptors.
//
// A Spec is the credential-free identity of a logical query and doubles as the
// cache key. An Outbound is the fully prepared request, credential included,
// that a transport sends.
package request

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"
)

// CredentialParam is the query parameter FRED reads the API key from.
const CredentialParam = "api_key"

// keyPrefix namespaces cache keys so a shared store can hold other data.
const keyPrefix = "fred"

var (
	// ErrInvalidQueryFragment is returned for an empty or malformed fragment.
	ErrInvalidQueryFragment = errors.New("invalid query fragment")

	// ErrMissingCredential is returned when no API key can be resolved.
	ErrMissingCredential = errors.New("missing FRED API key")
)

// Spec identifies a logical FRED query: the request category path plus its
// query parameters. The credential is never part of a Spec, so cache entries
// are shared across API keys.
//
// The zero Spec is invalid; obtain one from ParseSpec or a Builder.
type Spec struct {
	// Path is the request category, e.g. "series/observations".
	path string

	// Params are the query parameters in the order given per name.
	params url.Values
}

// ParseSpec parses a query fragment such as "series/observations?series_id=GNPCA&".
// The fragment excludes the API host prefix and the api_key parameter. A
// trailing "?" or "&" is accepted and ignored.
func ParseSpec(fragment string) (Spec, error) {
	if strings.TrimSpace(fragment) == "" {
		return Spec{}, fmt.Errorf("%w: fragment is empty", ErrInvalidQueryFragment)
	}

	for i, r := range fragment {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return Spec{}, fmt.Errorf("%w: invalid character %q at offset %d in %q",
				ErrInvalidQueryFragment, r, i, fragment)
		}
	}

	path, rawQuery, _ := strings.Cut(fragment, "?")
	path = strings.Trim(path, "/")
	if path == "" {
		return Spec{}, fmt.Errorf("%w: no request category in %q", ErrInvalidQueryFragment, fragment)
	}
	if strings.ContainsAny(path, "&=#") {
		return Spec{}, fmt.Errorf("%w: malformed request category %q", ErrInvalidQueryFragment, path)
	}

	params, err := url.ParseQuery(strings.Trim(rawQuery, "&"))
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidQueryFragment, err)
	}
	if _, ok := params[CredentialParam]; ok {
		return Spec{}, fmt.Errorf("%w: %s must not be part of the fragment", ErrInvalidQueryFragment, CredentialParam)
	}

	return Spec{path: path, params: params}, nil
}

// Path returns the request category, e.g. "series/observations".
func (s Spec) Path() string {
	return s.path
}

// Param returns the first value of the named query parameter.
func (s Spec) Param(name string) string {
	return s.params.Get(name)
}

// Params returns a copy of the query parameters.
func (s Spec) Params() url.Values {
	out := make(url.Values, len(s.params))
	for k, v := range s.params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// IsZero reports whether s is the zero Spec.
func (s Spec) IsZero() bool {
	return s.path == ""
}

// Equal reports whether s and other denote the same logical query.
func (s Spec) Equal(other Spec) bool {
	return s.Key() == other.Key()
}

// Key generates the deterministic cache key for the query.
// Format: fred:path:param1=val1:param2=val2
//
// Parameter names are sorted; repeated values keep their given order. The
// key is stable across processes, which a persistent cache depends on.
//
// Example:
//
//	fred:series/observations:series_id=GNPCA:units=pch
func (s Spec) Key() string {
	parts := []string{keyPrefix}

	if s.path != "" {
		parts = append(parts, s.path)
	}

	// Add query params (sorted for determinism)
	if len(s.params) > 0 {
		names := make([]string, 0, len(s.params))
		for name := range s.params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			for _, value := range s.params[name] {
				parts = append(parts, fmt.Sprintf("%s=%s", url.QueryEscape(name), url.QueryEscape(value)))
			}
		}
	}

	return strings.Join(parts, ":")
}

// String returns the normalized fragment, without credential.
func (s Spec) String() string {
	if len(s.params) == 0 {
		return s.path
	}
	return s.path + "?" + s.params.Encode()
}
