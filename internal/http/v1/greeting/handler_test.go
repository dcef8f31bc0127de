package greeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	applog "github.com/janisto/hello-api/internal/platform/logging"
	appmiddleware "github.com/janisto/hello-api/internal/platform/middleware"
	"github.com/janisto/hello-api/internal/platform/openapi"
	"github.com/janisto/hello-api/internal/platform/respond"
)

const wantBody = `{"message":"Hello World"}`

func newTestRouter(opts Options) chi.Router {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(""),
		respond.Recoverer(),
	)
	api := humachi.New(router, openapi.NewConfig("test", ""))
	Register(api, opts)
	return router
}

func TestPostRootIgnoresRequest(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		body        string
		contentType string
		accept      string
	}{
		{"empty body", "/", "", "", ""},
		{"json body", "/", `{"x":1}`, "application/json", ""},
		{"malformed json", "/", `{"x":`, "application/json", ""},
		{"plain text", "/", "hello there", "text/plain", ""},
		{"binary", "/", "\x00\x01\x02", "application/octet-stream", ""},
		{"query string", "/?name=ignored&debug=1", "", "", ""},
		{"wildcard accept", "/", "", "", "*/*"},
		{"unsupported accept", "/", "", "", "text/html"},
	}

	router := newTestRouter(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			req.Header.Set(chimiddleware.RequestIDHeader, "greeting-"+strings.ReplaceAll(tt.name, " ", "-"))
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected application/json, got %q", ct)
			}
			if got := strings.TrimSpace(resp.Body.String()); got != wantBody {
				t.Fatalf("expected body %s, got %s", wantBody, got)
			}
		})
	}
}

func TestPostRootIsIdempotent(t *testing.T) {
	router := newTestRouter(Options{})

	var first []byte
	for i := range 5 {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.Code)
		}
		if i == 0 {
			first = resp.Body.Bytes()
			continue
		}
		if !bytes.Equal(first, resp.Body.Bytes()) {
			t.Fatalf("request %d: body %q differs from first %q", i, resp.Body.Bytes(), first)
		}
	}
}

func TestPostRootCBOR(t *testing.T) {
	router := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Accept", "application/cbor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Fatalf("expected application/cbor, got %q", ct)
	}
	var data Data
	if err := cbor.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if data.Message != Message {
		t.Fatalf("expected %q, got %q", Message, data.Message)
	}
}

func TestGetRootMethodNotAllowed(t *testing.T) {
	router := newTestRouter(Options{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if allow := resp.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow: POST, got %q", allow)
	}
}

func TestPostUnknownPathNotFound(t *testing.T) {
	router := newTestRouter(Options{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/unknown", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var problem struct {
		Status int    `json:"status"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if problem.Status != http.StatusNotFound {
		t.Fatalf("expected status 404 in body, got %d", problem.Status)
	}
}

func TestPostRootWithDelay(t *testing.T) {
	const delay = 20 * time.Millisecond
	router := newTestRouter(Options{Delay: delay})

	start := time.Now()
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))

	if elapsed := time.Since(start); elapsed < delay {
		t.Fatalf("expected response after at least %s, got %s", delay, elapsed)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != wantBody {
		t.Fatalf("expected body %s, got %s", wantBody, got)
	}
}

func TestHandlerStopsWaitingWhenContextDone(t *testing.T) {
	handler := newHandler(Options{Delay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := handler(ctx, &struct{}{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output, got %+v", out)
	}
}

func TestWait(t *testing.T) {
	if err := wait(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("expected nil after timer fires, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := wait(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
