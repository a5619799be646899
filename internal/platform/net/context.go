// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyAdmin ctxKey = "admin"

// WithRequest annotates context with the request id
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return ctx
}

// WithAdmin marks the context as carrying an authenticated operator credential
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, keyAdmin, true)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// IsAdmin reports whether the context carries the operator credential
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(keyAdmin).(bool)
	return v
}
