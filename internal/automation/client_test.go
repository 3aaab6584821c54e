package automation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient builds a client pointed at a single test endpoint with
// no retry pauses.
func newTestClient(endpoint, url string, maxRetries int) *Client {
	return NewClient(Options{
		Endpoints:  map[string]string{endpoint: url},
		AuthHeader: "x-automation-auth",
		AuthValue:  "test-secret",
		MaxRetries: maxRetries,
		RetryDelay: 0,
	})
}

func TestCall_Success(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("x-automation-auth")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(EndpointRunAnalysis, srv.URL, 3)
	raw, err := c.Call(context.Background(), EndpointRunAnalysis, map[string]any{"project_id": 1}, time.Second)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", raw)
	}
	if gotAuth != "test-secret" {
		t.Fatalf("expected auth header to be sent, got %q", gotAuth)
	}
}

func TestCall_ServerErrorExhaustsRetries(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(EndpointRunAnalysis, srv.URL, 3)
	_, err := c.Call(context.Background(), EndpointRunAnalysis, nil, time.Second)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError, got %v", err)
	}
	if callErr.Kind != KindServer {
		t.Fatalf("expected server kind, got %s", callErr.Kind)
	}
	// 1 initial attempt + 3 retries.
	if attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
	if callErr.Attempts != 4 {
		t.Fatalf("expected reported attempts=4, got %d", callErr.Attempts)
	}
}

func TestCall_ServerErrorThenSuccess(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer srv.Close()

	c := newTestClient(EndpointRunAnalysis, srv.URL, 3)
	raw, err := c.Call(context.Background(), EndpointRunAnalysis, nil, time.Second)
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if string(raw) != `{"done":true}` {
		t.Fatalf("unexpected body: %s", raw)
	}
}

func TestCall_TerminalStatusesNoRetry(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTeapot, KindUnexpectedStatus},
	}
	for _, tc := range tests {
		var attempts int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(tc.status)
		}))

		c := newTestClient(EndpointChat, srv.URL, 3)
		_, err := c.Call(context.Background(), EndpointChat, nil, time.Second)
		srv.Close()

		var callErr *CallError
		if !errors.As(err, &callErr) {
			t.Fatalf("status %d: expected CallError, got %v", tc.status, err)
		}
		if callErr.Kind != tc.kind {
			t.Fatalf("status %d: expected kind %s, got %s", tc.status, tc.kind, callErr.Kind)
		}
		if attempts != 1 {
			t.Fatalf("status %d: expected exactly 1 attempt, got %d", tc.status, attempts)
		}
	}
}

func TestCall_TimeoutIsTerminalTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(EndpointRunAnalysis, srv.URL, 3)
	_, err := c.Call(context.Background(), EndpointRunAnalysis, nil, 20*time.Millisecond)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError, got %v", err)
	}
	if callErr.Kind != KindTransport {
		t.Fatalf("expected transport kind, got %s", callErr.Kind)
	}
	if callErr.Attempts != 1 {
		t.Fatalf("transport failures must not be retried, attempts=%d", callErr.Attempts)
	}
}

func TestCall_UnknownEndpoint(t *testing.T) {
	c := NewClient(Options{})
	if _, err := c.Call(context.Background(), "nope", nil, time.Second); err == nil {
		t.Fatalf("expected error for unknown endpoint")
	}
}
