package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	phttp "kilter/internal/platform/net/http"
)

func TestProtectedGuardsGroup(t *testing.T) {
	t.Parallel()

	r := phttp.AdaptChi(chi.NewRouter())
	Protected(r, NewStaticTokenPort("s3cret"), func(gr Router) {
		Post(gr, "/run", func(req *http.Request) (any, error) {
			// protected handlers see the admin flag
			if err := Admin(req); err != nil {
				return nil, err
			}
			return map[string]string{"ok": "yes"}, nil
		})
	})
	srv := r.Mux()

	// no credential: envelope 401, handler never runs
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/run", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.StatusCode != http.StatusUnauthorized || env.Error == "" {
		t.Fatalf("envelope: %+v", env)
	}

	// good credential passes and the admin flag reaches the handler
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token: got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedNilPortPassesThrough(t *testing.T) {
	t.Parallel()

	r := phttp.AdaptChi(chi.NewRouter())
	Protected(r, nil, func(gr Router) {
		Get(gr, "/open", func(*http.Request) (any, error) { return "ok", nil })
	})

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/open", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("nil port must pass through, got %d", rec.Code)
	}
}
