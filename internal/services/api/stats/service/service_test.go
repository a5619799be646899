package service

import (
	"context"
	"testing"
	"time"

	"kilter/internal/modkit/repokit"
	"kilter/internal/platform/testkit"
	"kilter/internal/services/api/stats/repo"
)

type fakeRepo struct{ row repo.OverviewRow }

func (f *fakeRepo) Overview(context.Context) (repo.OverviewRow, error) { return f.row, nil }

type fakeBinder struct{ r *fakeRepo }

func (b fakeBinder) Bind(repokit.Queryer) repo.Repo { return b.r }

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (fakeDB) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error   { return fn(fakeDB{}) }

func TestOverviewRatio(t *testing.T) {
	last := time.Date(2026, 8, 27, 13, 0, 0, 0, time.UTC)
	r := &fakeRepo{row: repo.OverviewRow{
		Total: 12, Analyzed: 10, Unanalyzed: 2, ScoreSum: 2.5, LastAt: &last,
	}}

	out, err := New(fakeDB{}, fakeBinder{r: r}).Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if out.TotalCount != 12 || out.AnalyzedCount != 10 || out.UnanalyzedCount != 2 {
		t.Fatalf("counts: %+v", out)
	}
	testkit.NearlyEqual(t, out.Ratio, 0.25, 1e-9)
	if out.LastSubmissionAt == nil || *out.LastSubmissionAt != "2026-08-27T13:00:00Z" {
		t.Fatalf("last submission: %v", out.LastSubmissionAt)
	}
}

func TestOverviewEmptyTable(t *testing.T) {
	out, err := New(fakeDB{}, fakeBinder{r: &fakeRepo{}}).Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if out.Ratio != 0 {
		t.Fatalf("ratio must be 0 with nothing analyzed, got %v", out.Ratio)
	}
	if out.LastSubmissionAt != nil {
		t.Fatalf("last submission must be nil on an empty table, got %v", *out.LastSubmissionAt)
	}
}
