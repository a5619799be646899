// kilter-sweep drains the unanalyzed submission backlog on an interval
// until interrupted, sharing claim semantics with the manual sweep endpoint
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kilter/internal/modkit/repokit"
	"kilter/internal/platform/config"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/logger"
	"kilter/internal/platform/retry"
	"kilter/internal/platform/store"

	openaiadapter "kilter/internal/adapters/classify/openai"
	"kilter/internal/services/sweep/domain"
	sweeprepo "kilter/internal/services/sweep/repo"
	sweepsvc "kilter/internal/services/sweep/service"
)

func main() {
	root := config.New()
	coreCfg := root.Prefix("CORE_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	clsCfg := root.Prefix("CLASSIFIER_")

	l := logger.Named("sweep")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "kilter-sweep",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	classifier, err := openaiadapter.New(openaiadapter.FromConf(clsCfg))
	if err != nil {
		l.Panic().Err(err).Msg("classifier setup failed")
	}

	svc := sweepsvc.New(
		st.PG,
		sweeprepo.NewPG(),
		classifier,
		limiter.FromConf(clsCfg),
		retry.FromConf(clsCfg),
	)

	interval := coreCfg.MayDuration("SWEEP_INTERVAL", 15*time.Second)
	batchLimit := coreCfg.MayInt("SWEEP_BATCH_LIMIT", 30)

	l.Info().
		Dur("interval", interval).
		Int("batch_limit", batchLimit).
		Msg("sweep daemon starting")

	runOnce := func() {
		out, err := svc.Run(ctx, domain.RunInput{Limit: batchLimit})
		if err != nil {
			l.Error().Err(err).Msg("sweep failed")
			return
		}
		if out.Processed > 0 {
			l.Info().
				Str("batch_id", out.BatchID).
				Int("processed", out.Processed).
				Msg("sweep completed")
		}
	}

	// drain immediately on startup, then tick
	runOnce()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("sweep daemon stopping")
			return
		case <-t.C:
			runOnce()
		}
	}
}
