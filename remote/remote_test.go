package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func testClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Token: "tok", Version: "2024-01-01"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDo_Success(t *testing.T) {
	// WHAT: A 2xx JSON response decodes into Body with ID and URL lifted out.
	r := chi.NewRouter()
	r.Post("/v1/pages", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer tok" {
			t.Error("missing bearer token")
		}
		if req.Header.Get("X-Platform-Version") != "2024-01-01" {
			t.Error("missing version pin header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"page-1","url":"https://x/page-1","object":"page"}`))
	})
	c := testClient(t, r)

	resp, err := c.Do(context.Background(), "POST", "/v1/pages", map[string]any{"k": "v"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ID != "page-1" || resp.URL != "https://x/page-1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDo_RateLimited(t *testing.T) {
	// WHAT: 429 surfaces as *RateLimitedError carrying the Retry-After delay.
	r := chi.NewRouter()
	r.Post("/v1/pages", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := testClient(t, r)

	_, err := c.Do(context.Background(), "POST", "/v1/pages", nil)
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitedError", err)
	}
	if rl.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %s, want 3s", rl.RetryAfter)
	}
	if !Retryable(err) {
		t.Error("rate limit should be retryable")
	}
}

func TestDo_APIError(t *testing.T) {
	// WHAT: Non-2xx with a platform error body yields a typed APIError.
	r := chi.NewRouter()
	r.Patch("/v1/databases/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"validation_error","message":"bad property"}`))
	})
	c := testClient(t, r)

	_, err := c.Do(context.Background(), "PATCH", "/v1/databases/db-1", map[string]any{})
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if ae.Status != 400 || ae.Code != "validation_error" {
		t.Errorf("APIError = %+v", ae)
	}
	if Retryable(err) {
		t.Error("a 400 must not be retryable")
	}
	if !Retryable(&APIError{Status: 503}) {
		t.Error("a 503 must be retryable")
	}
}

func TestDo_TransportErrorRetryable(t *testing.T) {
	// WHAT: A connection dropped before any HTTP response classifies as
	// retryable; it costs a backoff wait, not the whole run.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Fatal(err)
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Token: "tok"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Do(context.Background(), "POST", "/v1/pages", map[string]any{"k": "v"})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !Retryable(err) {
		t.Errorf("transport error not retryable: %v", err)
	}
}

func TestDo_ContextCancel(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/slow", func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	})
	c := testClient(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Do(ctx, "GET", "/v1/slow", nil)
	if err == nil {
		t.Fatal("expected error after cancel")
	}
	if Retryable(err) {
		t.Error("caller cancellation must not be retryable")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("5"); d != 5*time.Second {
		t.Errorf("seconds form = %s", d)
	}
	when := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(when); d <= 0 || d > 10*time.Second {
		t.Errorf("date form = %s", d)
	}
	if d := parseRetryAfter("garbage"); d != 0 {
		t.Errorf("garbage = %s, want 0", d)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Token: "t"}, nil); err == nil {
		t.Error("missing base URL should fail")
	}
	if _, err := New(Config{BaseURL: "https://x"}, nil); err == nil {
		t.Error("missing token should fail")
	}
}
