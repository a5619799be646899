package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perrs "kilter/internal/platform/errors"
	knet "kilter/internal/platform/net"
)

type allowPort struct{}

func (allowPort) Parse(*http.Request) error { return nil }

type denyPort struct{}

func (denyPort) Parse(*http.Request) error { return perrs.Unauthorizedf("invalid bearer token") }

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestAuthNilPortPassesThrough(t *testing.T) {
	t.Parallel()

	called := false
	h := Auth(nil, writeJSON)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Fatal("next handler not reached")
	}
}

func TestAuthDenyWrites401Envelope(t *testing.T) {
	t.Parallel()

	h := Auth(denyPort{}, writeJSON)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/sweep/run", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want 401", rec.Code)
	}
	var body struct {
		StatusCode int    `json:"status_code"`
		Error      string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v\nraw=%s", err, rec.Body.String())
	}
	if body.StatusCode != http.StatusUnauthorized || body.Error == "" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestAuthAllowMarksAdminContext(t *testing.T) {
	t.Parallel()

	var admin bool
	h := Auth(allowPort{}, writeJSON)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin = knet.IsAdmin(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/sweep/run", nil))
	if !admin {
		t.Fatal("request context not marked admin after auth")
	}
}
