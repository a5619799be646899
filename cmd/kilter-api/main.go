// @title         Kilter API
// @version       0.1.0
// @description   Keyword intake, scoring, and stats for the installation floor

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kilter/internal/platform/config"
	"kilter/internal/platform/logger"
	phttp "kilter/internal/platform/net/http"
	"kilter/internal/platform/store"

	openaiadapter "kilter/internal/adapters/classify/openai"
	"kilter/internal/services/api"
)

func main() {
	root := config.New()
	coreCfg := root.Prefix("CORE_")       // CORE_API_PORT, CORE_API_ADMIN_TOKEN etc
	pgCfg := root.Prefix("SERVICE_PGSQL_") // SERVICE_PGSQL_DBURL etc
	clsCfg := root.Prefix("CLASSIFIER_")   // CLASSIFIER_API_KEY etc

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// open the platform store (postgres)
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "kilter-api",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	classifier, err := openaiadapter.New(openaiadapter.FromConf(clsCfg))
	if err != nil {
		l.Panic().Err(err).Msg("classifier setup failed")
	}

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(coreCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Classifier:     classifier,
			EnableSwagger:  coreCfg.MayBool("API_SWAGGER", true),
			EnableProfiler: coreCfg.MayBool("API_PROFILER", false),
		},
	)

	// drain in-flight requests on SIGINT/SIGTERM
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			l.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	// run
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
