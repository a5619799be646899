package middleware

import (
	"net/http"

	knet "kilter/internal/platform/net"
)

// AuthPort is the seam an operator credential checker implements
type AuthPort interface {
	// Parse inspects the request credential and returns an error when it is
	// missing or does not match
	Parse(r *http.Request) error
}

// Auth guards a subtree with the port. A nil port passes everything through
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := p.Parse(r); err != nil {
				status, body := knet.Error(err, knet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(knet.WithAdmin(r.Context())))
		})
	}
}
