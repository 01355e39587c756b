// Package testutil provides testing utilities for the FRED client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// ObservationsXML is a minimal series/observations body for GNPCA.
const ObservationsXML = `<?xml version="1.0" encoding="utf-8" ?>
<observations realtime_start="2025-10-04" realtime_end="2025-10-04" observation_start="1600-01-01" observation_end="9999-12-31" units="lin" output_type="1" file_type="xml" order_by="observation_date" sort_order="asc" count="2" offset="0" limit="100000">
  <observation realtime_start="2025-10-04" realtime_end="2025-10-04" date="1971-04-01" value="0.850603488248666"/>
  <observation realtime_start="2025-10-04" realtime_end="2025-10-04" date="1971-05-01" value="."/>
</observations>`

// MockFREDResponse defines the behavior for a mock FRED endpoint response.
type MockFREDResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockFRED is a configurable mock FRED server for testing. Endpoints live
// under /fred, so clients should use URL()+"/fred" as their base URL.
type MockFRED struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	LastAPIKey   string
	LastQuery    string
}

// NewMockFRED creates a new mock FRED server.
func NewMockFRED() *MockFRED {
	mock := &MockFRED{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastAPIKey = r.URL.Query().Get("api_key")
		mock.LastQuery = r.URL.RawQuery
		mock.mu.Unlock()

		// FRED rejects every call without a key before routing.
		if r.URL.Query().Get("api_key") == "" {
			writeResponse(w, NewErrorResponse(http.StatusBadRequest,
				"Bad Request.  Variable api_key is not set.  Read https://fred.stlouisfed.org/docs/api/api_key.html for more information."))
			return
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		writeResponse(w, NewErrorResponse(http.StatusNotFound, "Not Found."))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockFRED) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure a request.Builder with.
func (m *MockFRED) BaseURL() string {
	return m.server.URL + "/fred"
}

// Close shuts down the mock server.
func (m *MockFRED) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockFRED) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastAPIKey = ""
	m.LastQuery = ""
}

// SetHandler sets a custom handler for an endpoint path such as
// "series/observations".
func (m *MockFRED) SetHandler(endpoint string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers["/fred/"+endpoint] = handler
}

// SetResponse configures a fixed response for an endpoint.
func (m *MockFRED) SetResponse(endpoint string, resp MockFREDResponse) {
	m.SetHandler(endpoint, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		writeResponse(w, resp)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockFRED) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastAPIKey returns the api_key of the most recent request.
func (m *MockFRED) GetLastAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastAPIKey
}

func writeResponse(w http.ResponseWriter, resp MockFREDResponse) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewXMLResponse creates a 200 OK response carrying body.
func NewXMLResponse(body string) MockFREDResponse {
	return MockFREDResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=UTF-8",
		},
	}
}

// NewErrorResponse creates a FRED error document with the given status.
func NewErrorResponse(status int, message string) MockFREDResponse {
	return MockFREDResponse{
		StatusCode: status,
		Body: fmt.Sprintf("<?xml version=\"1.0\" encoding=\"utf-8\" ?>\n<error code=\"%d\" message=\"%s\"/>",
			status, message),
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=UTF-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockFREDResponse {
	return NewErrorResponse(http.StatusTooManyRequests, "Too Many Requests.  Exceeded Rate Limit")
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockFREDResponse {
	return NewErrorResponse(http.StatusInternalServerError, "Internal Server Error")
}
