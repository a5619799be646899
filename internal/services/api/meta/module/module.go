// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	modkit "kilter/internal/modkit"
	"kilter/internal/modkit/httpkit"
	str "kilter/internal/platform/strings"

	metahttp "kilter/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
// its routes live at the API root, so mounting skips the usual prefix group
type Module struct {
	deps      modkit.Deps
	name      string
	mws       []func(http.Handler) http.Handler
	swaggerOn bool

	register func(httpkit.Router)

	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
	}, opts...)...)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		startedAt: time.Now(),
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: "kilter-api",
			StartedAt:   m.startedAt,
			PG:          deps.PG,
		})
		if external != nil {
			external(r)
		}
	}

	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	if len(m.mws) > 0 {
		r.Group(func(rr httpkit.Router) {
			rr.Use(m.mws...)
			m.register(rr)
		})
		return
	}
	m.register(r)
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Middlewares implements the modkit.Module interface
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
