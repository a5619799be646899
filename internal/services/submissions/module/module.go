// Package module wires submission intake into the API using modkit
package module

import (
	"net/http"

	"kilter/internal/adapters/classify"
	modkit "kilter/internal/modkit"
	"kilter/internal/modkit/httpkit"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/retry"
	str "kilter/internal/platform/strings"
	subhttp "kilter/internal/services/submissions/http"
	subrepo "kilter/internal/services/submissions/repo"
	subsvc "kilter/internal/services/submissions/service"
)

// Options carries the intake collaborators that do not live in modkit.Deps
type Options struct {
	Classifier classify.Classifier
	Limiter    *limiter.Limiter
	Retry      retry.Policy
	MaxWordLen int
}

// Module implements the submissions module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc subsvc.Service
}

// New constructs the submissions module
func New(deps modkit.Deps, opt Options, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append(
		[]modkit.Option{modkit.WithName("submissions"), modkit.WithPrefix("/submissions")},
		opts...,
	)...)

	repo := subrepo.NewPG()
	svc := subsvc.New(
		deps.PG,
		repo,
		opt.Classifier,
		opt.Limiter,
		opt.Retry,
		subsvc.Config{MaxWordLen: opt.MaxWordLen},
	)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptSubmissionsPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		subhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
