package httpkit

import (
	"net/http"
	"strings"

	perrs "kilter/internal/platform/errors"
	knet "kilter/internal/platform/net"
)

// Admin reports whether the request passed the operator auth middleware
// handlers on protected routes call this so a bad mount fails closed
func Admin(r *http.Request) error {
	if !knet.IsAdmin(r.Context()) {
		return perrs.Unauthorizedf("missing bearer token")
	}
	return nil
}

// Bearer returns the raw bearer token from the Authorization header
// scheme match is case-insensitive and surrounding whitespace is ignored
func Bearer(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	if s == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	const prefix = "bearer"
	if len(s) <= len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
