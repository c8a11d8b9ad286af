package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/orderdesk/internal/notices"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/types"
)

func TestRequestIDKeepsValidIncomingID(t *testing.T) {
	h := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected incoming id to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got == "" || len(got) > maxRequestIDLen {
		t.Fatalf("expected a fresh id, got %q", got)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	var body types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestLoggingRecordsImplicitOK(t *testing.T) {
	var seen int
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	wrapped := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			seen = rec.status
		})
	}
	Logging(logger.Nop())(wrapped(h)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", seen)
	}
}

func TestNoticesAttachesRecorder(t *testing.T) {
	var found bool
	h := Notices()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		found = notices.FromContext(r.Context()) != nil
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !found {
		t.Fatalf("expected a notice recorder on the request context")
	}
	if notices.FromContext(context.Background()) != nil {
		t.Fatalf("background context must not carry a recorder")
	}
}
