package client

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/fred-client/internal/testutil"
	"github.com/Sternrassler/fred-client/pkg/request"
)

func TestHTTPTransport_Send(t *testing.T) {
	mock := testutil.NewMockFRED()
	defer mock.Close()
	mock.SetResponse("series/observations", testutil.NewXMLResponse(testutil.ObservationsXML))

	b := request.NewBuilder("abcd")
	b.BaseURL = mock.BaseURL()
	_, out, err := b.Build("series/observations?series_id=GNPCA", "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	status, body, err := NewHTTPTransport(nil).Send(context.Background(), out)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if string(body) != testutil.ObservationsXML {
		t.Errorf("body = %s, want observations document", body)
	}
	if mock.GetLastAPIKey() != "abcd" {
		t.Errorf("api_key = %q, want abcd", mock.GetLastAPIKey())
	}
}

func TestHTTPTransport_NonOKIsNotAnError(t *testing.T) {
	mock := testutil.NewMockFRED()
	defer mock.Close()

	b := request.NewBuilder("abcd")
	b.BaseURL = mock.BaseURL()
	_, out, err := b.Build("series?series_id=NOPE", "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	status, body, err := NewHTTPTransport(nil).Send(context.Background(), out)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if !strings.Contains(string(body), "<error") {
		t.Errorf("body = %s, want error document", body)
	}
}

func TestHTTPTransport_ErrorRedactsCredential(t *testing.T) {
	const key = "supersecretkey0123456789abcdef00"

	b := request.NewBuilder(key)
	b.BaseURL = "http://127.0.0.1:1/fred"
	_, out, err := b.Build("tags", "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	transport := NewHTTPTransport(&http.Client{Timeout: time.Second})
	_, _, err = transport.Send(context.Background(), out)
	if err == nil {
		t.Fatal("Send() to a closed port should fail")
	}
	if strings.Contains(err.Error(), key) {
		t.Errorf("transport error leaks credential: %v", err)
	}
}

func TestHTTPTransport_DefaultTimeout(t *testing.T) {
	transport := NewHTTPTransport(nil)
	if transport.client.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", transport.client.Timeout, DefaultTimeout)
	}
}
