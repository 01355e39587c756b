package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Sternrassler/fred-client/pkg/request"
)

// DefaultTimeout bounds a single HTTP exchange with FRED.
const DefaultTimeout = 30 * time.Second

// Transport sends a prepared request and returns the status code and the
// complete response body. A non-2xx status is not an error at this layer.
type Transport interface {
	Send(ctx context.Context, out *request.Outbound) (int, []byte, error)
}

// HTTPTransport is a Transport over net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client. A nil client gets a default one with
// DefaultTimeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{client: client}
}

// Send performs the request and reads the whole body.
func (t *HTTPTransport) Send(ctx context.Context, out *request.Outbound) (int, []byte, error) {
	req, err := out.HTTPRequest(ctx)
	if err != nil {
		return 0, nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, redact(err, out)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// redact strips the credential from the URL net/http embeds in its errors.
func redact(err error, out *request.Outbound) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: out.RedactedURL(), Err: urlErr.Err}
	}
	return err
}
