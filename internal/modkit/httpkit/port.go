// Package httpkit provides tiny HTTP helpers and adapters
package httpkit

import (
	"crypto/subtle"
	"net/http"

	perrs "kilter/internal/platform/errors"
)

// TokenFunc checks a raw bearer token and returns an error when it does not match
type TokenFunc func(token string) error

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	check TokenFunc
}

// NewPortFunc builds a Port from a simple checker function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{check: fn}
}

// NewStaticTokenPort builds a Port that compares against a single operator token
// comparison is constant time so the credential cannot be probed byte by byte
func NewStaticTokenPort(want string) *Port {
	return NewPortFunc(func(got string) error {
		if want == "" {
			return perrs.Unauthorizedf("admin token not configured")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			return perrs.Unauthorizedf("invalid bearer token")
		}
		return nil
	})
}

// Parse extracts the bearer token from Authorization and runs the checker
// returns unauthorized when the header is missing, malformed, or the checker rejects it
func (p *Port) Parse(r *http.Request) error {
	raw, err := Bearer(r)
	if err != nil {
		return err
	}

	if p.check == nil {
		return perrs.Unauthorizedf("invalid bearer token")
	}

	if err := p.check(raw); err != nil {
		return perrs.Unauthorizedf("invalid bearer token")
	}
	return nil
}
