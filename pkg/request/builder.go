package request

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const (
	// DefaultBaseURL is the FRED API root every fragment is appended to.
	DefaultBaseURL = "https://api.stlouisfed.org/fred"

	// DefaultUserAgent identifies the client to FRED.
	DefaultUserAgent = "fred-client/0.1.0"

	// EnvAPIKey is the environment variable holding the default API key.
	EnvAPIKey = "FRED_API_KEY"
)

// Builder composes Specs and authenticated Outbound requests.
type Builder struct {
	// BaseURL is the API root (default: DefaultBaseURL).
	BaseURL string

	// UserAgent header sent with every request (default: DefaultUserAgent).
	UserAgent string

	// Credential is the default API key, used when Build gets none.
	Credential string
}

// NewBuilder returns a Builder with default endpoint and the given default credential.
func NewBuilder(credential string) *Builder {
	return &Builder{
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
		Credential: credential,
	}
}

// FromEnv returns a Builder whose default credential is read from FRED_API_KEY.
func FromEnv() *Builder {
	return NewBuilder(os.Getenv(EnvAPIKey))
}

// Build parses fragment and prepares a request using the FRED_API_KEY
// environment variable unless credential is non-empty.
func Build(fragment, credential string) (Spec, *Outbound, error) {
	return FromEnv().Build(fragment, credential)
}

// ResolveCredential applies the credential precedence rule: an explicit key
// overrides the fallback. It has no side effects.
func ResolveCredential(explicit, fallback string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrMissingCredential
}

// Build parses fragment into a Spec and prepares the Outbound request for it.
// An empty credential falls back to the Builder's default. No I/O happens here.
func (b *Builder) Build(fragment, credential string) (Spec, *Outbound, error) {
	spec, err := ParseSpec(fragment)
	if err != nil {
		return Spec{}, nil, err
	}

	key, err := ResolveCredential(credential, b.Credential)
	if err != nil {
		return Spec{}, nil, fmt.Errorf("build request %q: %w", spec, err)
	}

	out, err := b.outbound(spec, key)
	if err != nil {
		return Spec{}, nil, err
	}
	return spec, out, nil
}

// outbound renders the full target URL for spec.
func (b *Builder) outbound(spec Spec, credential string) (*Outbound, error) {
	base := b.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	userAgent := b.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	target, err := url.Parse(strings.TrimRight(base, "/") + "/" + spec.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQueryFragment, err)
	}
	// FRED documents the key as the last parameter.
	query := spec.params.Encode()
	if query != "" {
		query += "&"
	}
	target.RawQuery = query + CredentialParam + "=" + url.QueryEscape(credential)

	header := make(http.Header)
	header.Set("Accept", "application/xml")
	header.Set("User-Agent", userAgent)

	return &Outbound{
		method:     http.MethodGet,
		url:        target,
		header:     header,
		credential: credential,
	}, nil
}

// Outbound is a prepared FRED request: method, full URL with credential, and
// headers. Its String form redacts the credential.
type Outbound struct {
	method     string
	url        *url.URL
	header     http.Header
	credential string
}

// Method returns the HTTP method.
func (o *Outbound) Method() string {
	return o.method
}

// URL returns the full target URL including the credential.
func (o *Outbound) URL() string {
	return o.url.String()
}

// Header returns a copy of the request headers.
func (o *Outbound) Header() http.Header {
	return o.header.Clone()
}

// HasCredential reports whether a non-empty API key is attached.
func (o *Outbound) HasCredential() bool {
	return o.credential != ""
}

// HTTPRequest converts o into an *http.Request bound to ctx.
func (o *Outbound) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, o.method, o.url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = o.header.Clone()
	return req, nil
}

// RedactedURL returns the target URL with the credential replaced.
func (o *Outbound) RedactedURL() string {
	redacted := *o.url
	query := redacted.Query()
	query.Set(CredentialParam, "REDACTED")
	redacted.RawQuery = query.Encode()
	return redacted.String()
}

// String returns the method and URL with the credential redacted.
func (o *Outbound) String() string {
	return o.method + " " + o.RedactedURL()
}

// GoString keeps the credential out of %#v output.
func (o *Outbound) GoString() string {
	return fmt.Sprintf("request.Outbound{%s, key: (%d characters)}", o.String(), len(o.credential))
}
