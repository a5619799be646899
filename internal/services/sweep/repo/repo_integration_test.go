//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"kilter/internal/modkit/repokit"
	"kilter/internal/platform/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

// openStore builds a store against dsn and applies the schema
func openStore(t *testing.T, ctx context.Context, dsn string) *store.Store {
	t.Helper()

	st, err := store.Open(ctx, store.Config{
		AppName: "kilter-test",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 8},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	ddl, err := os.ReadFile("../../../../migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := st.PG.Exec(ctx, string(ddl)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return st
}

func seedBacklog(t *testing.T, ctx context.Context, q repokit.Queryer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		word := fmt.Sprintf("word-%02d", i)
		if _, err := q.Exec(ctx,
			`insert into submissions (word_raw, word_norm) values ($1, $1)`, word,
		); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestClaimBacklogSkipsRowsHeldByConcurrentSweep(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st := openStore(t, ctx, dsn)
	seedBacklog(t, ctx, st.PG, 10)

	binder := NewPG()

	firstClaimed := make(chan []ClaimedRow, 1)
	releaseFirst := make(chan struct{})
	firstDone := make(chan error, 1)

	// first sweep claims 4 rows and holds its transaction open
	go func() {
		firstDone <- st.PG.Tx(ctx, func(q repokit.RowQuerier) error {
			rows, err := binder.Bind(q).ClaimBacklog(ctx, 4)
			if err != nil {
				return err
			}
			firstClaimed <- rows
			<-releaseFirst
			return nil
		})
	}()

	var first []ClaimedRow
	select {
	case first = <-firstClaimed:
	case <-time.After(30 * time.Second):
		t.Fatal("first sweep never claimed")
	}
	if len(first) != 4 {
		t.Fatalf("first sweep: want 4 rows, got %d", len(first))
	}

	// second sweep runs while the first still holds its locks
	var second []ClaimedRow
	err := st.PG.Tx(ctx, func(q repokit.RowQuerier) error {
		rows, err := binder.Bind(q).ClaimBacklog(ctx, 10)
		if err != nil {
			return err
		}
		second = rows
		return nil
	})
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(second) != 6 {
		t.Fatalf("second sweep: want the 6 unlocked rows, got %d", len(second))
	}

	held := map[int64]bool{}
	for _, r := range first {
		held[r.ID] = true
	}
	for _, r := range second {
		if held[r.ID] {
			t.Fatalf("row %d claimed by both sweeps", r.ID)
		}
	}

	close(releaseFirst)
	if err := <-firstDone; err != nil {
		t.Fatalf("first sweep tx: %v", err)
	}
}

func TestRecordAnalysisDrainsBacklog(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st := openStore(t, ctx, dsn)
	seedBacklog(t, ctx, st.PG, 3)

	binder := NewPG()
	batchID := uuid.NewString()

	err := st.PG.Tx(ctx, func(q repokit.RowQuerier) error {
		r := binder.Bind(q)
		claimed, err := r.ClaimBacklog(ctx, 2)
		if err != nil {
			return err
		}
		if len(claimed) != 2 {
			t.Fatalf("want 2 claimed, got %d", len(claimed))
		}
		for _, row := range claimed {
			if err := r.RecordAnalysis(ctx, row.ID, "order", 0.4, 0.9, batchID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("sweep tx: %v", err)
	}

	// only the unrecorded row remains claimable
	var rest []ClaimedRow
	err = st.PG.Tx(ctx, func(q repokit.RowQuerier) error {
		var err error
		rest, err = binder.Bind(q).ClaimBacklog(ctx, 10)
		return err
	})
	if err != nil {
		t.Fatalf("follow-up claim: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("want 1 remaining, got %d", len(rest))
	}

	var analyses int
	if err := st.PG.QueryRow(ctx,
		`select count(*) from analyses where batch_id = $1`, batchID,
	).Scan(&analyses); err != nil {
		t.Fatalf("count analyses: %v", err)
	}
	if analyses != 2 {
		t.Fatalf("want 2 analysis rows, got %d", analyses)
	}

	var stamped int
	if err := st.PG.QueryRow(ctx,
		`select count(*) from submissions where analyzed_at is not null and real_score = 0.4`,
	).Scan(&stamped); err != nil {
		t.Fatalf("count stamped: %v", err)
	}
	if stamped != 2 {
		t.Fatalf("want 2 stamped submissions, got %d", stamped)
	}
}
