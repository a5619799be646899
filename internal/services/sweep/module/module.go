// Package module wires backlog sweeps into the API using modkit
package module

import (
	"net/http"

	"kilter/internal/adapters/classify"
	modkit "kilter/internal/modkit"
	"kilter/internal/modkit/httpkit"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/net/middleware"
	"kilter/internal/platform/retry"
	str "kilter/internal/platform/strings"
	sweephttp "kilter/internal/services/sweep/http"
	sweeprepo "kilter/internal/services/sweep/repo"
	sweepsvc "kilter/internal/services/sweep/service"
)

// Options carries the sweep collaborators that do not live in modkit.Deps
type Options struct {
	Classifier classify.Classifier
	Limiter    *limiter.Limiter
	Retry      retry.Policy

	// Auth guards the whole route group; nil leaves it open (tests only)
	Auth middleware.AuthPort
}

// Module implements the sweep module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool
	auth      middleware.AuthPort

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc sweepsvc.Service
}

// New constructs the sweep module
func New(deps modkit.Deps, opt Options, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append(
		[]modkit.Option{modkit.WithName("sweep"), modkit.WithPrefix("/sweep")},
		opts...,
	)...)

	repo := sweeprepo.NewPG()
	svc := sweepsvc.New(deps.PG, repo, opt.Classifier, opt.Limiter, opt.Retry)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		auth:      opt.Auth,
		svc:       svc,
	}
	m.ports = adaptSweepPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		sweephttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes behind the admin bearer guard
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		httpkit.Protected(rr, m.auth, m.register)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
