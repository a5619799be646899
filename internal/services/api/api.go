// Package api provides the HTTP API for the application
package api

import (
	"kilter/internal/platform/config"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/logger"
	phttp "kilter/internal/platform/net/http"
	"kilter/internal/platform/retry"
	"kilter/internal/platform/store"

	"kilter/internal/adapters/classify"
	"kilter/internal/modkit"
	"kilter/internal/modkit/httpkit"
	"kilter/internal/modkit/module"
	"kilter/internal/modkit/swaggerkit"

	metamod "kilter/internal/services/api/meta/module"
	statsmod "kilter/internal/services/api/stats/module"
	submissionsmod "kilter/internal/services/submissions/module"
	sweepmod "kilter/internal/services/sweep/module"
)

// Options are the API options
type Options struct {
	// Config is the root config; modules read their own prefixed views
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Classifier     classify.Classifier
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	coreCfg := opt.Config.Prefix("CORE_")
	clsCfg := opt.Config.Prefix("CLASSIFIER_")

	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// one limiter and retry posture shared by intake and sweep, so the
	// classifier inflight cap holds across both entry points
	lim := limiter.FromConf(clsCfg)
	pol := retry.FromConf(clsCfg)

	adminPort := httpkit.NewStaticTokenPort(coreCfg.MayString("API_ADMIN_TOKEN", ""))

	mods := []module.Module{
		metamod.New(deps),
		statsmod.New(deps),
		submissionsmod.New(deps, submissionsmod.Options{
			Classifier: opt.Classifier,
			Limiter:    lim,
			Retry:      pol,
			MaxWordLen: coreCfg.MayInt("SUBMIT_MAX_WORD_LEN", 60),
		}),
		sweepmod.New(deps, sweepmod.Options{
			Classifier: opt.Classifier,
			Limiter:    lim,
			Retry:      pol,
			Auth:       adminPort,
		}),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
