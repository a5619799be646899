package service

import (
	"context"
	"testing"
	"time"

	"kilter/internal/adapters/classify"
	"kilter/internal/modkit/repokit"
	perr "kilter/internal/platform/errors"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/retry"
	"kilter/internal/services/sweep/domain"
	"kilter/internal/services/sweep/repo"
)

type recorded struct {
	id         int64
	pos        string
	score      float64
	confidence float64
	batchID    string
}

// fakeRepo is an in-memory stand-in for the postgres repo
type fakeRepo struct {
	backlog    []repo.ClaimedRow
	claimLimit int
	recordErr  error
	records    []recorded
}

func (f *fakeRepo) ClaimBacklog(_ context.Context, limit int) ([]repo.ClaimedRow, error) {
	f.claimLimit = limit
	if limit > len(f.backlog) {
		limit = len(f.backlog)
	}
	return f.backlog[:limit], nil
}

func (f *fakeRepo) RecordAnalysis(
	_ context.Context, id int64, pos string, score, confidence float64, batchID string,
) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, recorded{id, pos, score, confidence, batchID})
	return nil
}

type fakeBinder struct{ r *fakeRepo }

func (b fakeBinder) Bind(repokit.Queryer) repo.Repo { return b.r }

type fakeDB struct{ rolledBack bool }

func (*fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (*fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (*fakeDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (f *fakeDB) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error {
	if err := fn(f); err != nil {
		f.rolledBack = true
		return err
	}
	return nil
}

type fakeClassifier struct {
	results []classify.Result
	err     error
	calls   int
}

func (f *fakeClassifier) ClassifyOne(ctx context.Context, text string) (classify.Result, error) {
	rs, err := f.ClassifyBatch(ctx, []string{text})
	if err != nil {
		return classify.Result{}, err
	}
	return rs[0], nil
}

func (f *fakeClassifier) ClassifyBatch(context.Context, []string) ([]classify.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func noSleep() retry.Policy {
	return retry.Default().WithSeams(
		func(context.Context, time.Duration) error { return nil },
		func(int64) int64 { return 0 },
	)
}

func newSvc(r *fakeRepo, c classify.Classifier) (*Svc, *fakeDB) {
	db := &fakeDB{}
	return New(db, fakeBinder{r: r}, c, limiter.New(3), noSleep()), db
}

func TestRunEmptyBacklog(t *testing.T) {
	r := &fakeRepo{}
	c := &fakeClassifier{}
	svc, _ := newSvc(r, c)

	out, err := svc.Run(context.Background(), domain.RunInput{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Processed != 0 {
		t.Fatalf("want 0 processed, got %d", out.Processed)
	}
	if out.BatchID == "" {
		t.Fatal("want a batch id even for empty sweeps")
	}
	if c.calls != 0 {
		t.Fatal("empty backlog must not call the classifier")
	}
}

func TestRunRecordsScores(t *testing.T) {
	r := &fakeRepo{backlog: []repo.ClaimedRow{{ID: 1, WordNorm: "tidy"}, {ID: 2, WordNorm: "riot"}}}
	c := &fakeClassifier{results: []classify.Result{
		{Pos: classify.PositionOrder, Score: 0.9, Confidence: 0.95},
		{Pos: classify.PositionChaos, Score: -0.7, Confidence: 0.8},
	}}
	svc, _ := newSvc(r, c)

	out, err := svc.Run(context.Background(), domain.RunInput{Limit: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Processed != 2 || len(r.records) != 2 {
		t.Fatalf("want 2 recorded, got %+v", r.records)
	}
	if r.records[0].id != 1 || r.records[0].pos != "order" || r.records[0].score != 0.9 {
		t.Fatalf("row 1: %+v", r.records[0])
	}
	if r.records[1].id != 2 || r.records[1].score != -0.7 {
		t.Fatalf("row 2: %+v", r.records[1])
	}
	if r.records[0].batchID != out.BatchID || r.records[1].batchID != out.BatchID {
		t.Fatal("all rows must share the sweep batch id")
	}
}

func TestRunBatchFailureScoresNeutral(t *testing.T) {
	r := &fakeRepo{backlog: []repo.ClaimedRow{{ID: 7, WordNorm: "fog"}, {ID: 8, WordNorm: "mist"}}}
	c := &fakeClassifier{err: perr.Unavailablef("upstream down")}
	svc, _ := newSvc(r, c)

	out, err := svc.Run(context.Background(), domain.RunInput{})
	if err != nil {
		t.Fatalf("batch failure must still drain the backlog, got %v", err)
	}
	if out.Processed != 2 {
		t.Fatalf("want 2 processed, got %d", out.Processed)
	}
	want := classify.Neutral()
	for _, rec := range r.records {
		if rec.pos != string(want.Pos) || rec.score != want.Score || rec.confidence != want.Confidence {
			t.Fatalf("want neutral record, got %+v", rec)
		}
	}
}

func TestRunRetriesRateLimit(t *testing.T) {
	r := &fakeRepo{backlog: []repo.ClaimedRow{{ID: 1, WordNorm: "a"}}}
	c := &rateLimitedTwice{ok: []classify.Result{{Pos: classify.PositionOrder, Score: 0.2, Confidence: 0.5}}}
	svc, _ := newSvc(r, c)

	out, err := svc.Run(context.Background(), domain.RunInput{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.calls != 3 {
		t.Fatalf("want 3 attempts, got %d", c.calls)
	}
	if out.Processed != 1 || r.records[0].score != 0.2 {
		t.Fatalf("unexpected records %+v", r.records)
	}
}

type rateLimitedTwice struct {
	ok    []classify.Result
	calls int
}

func (f *rateLimitedTwice) ClassifyOne(context.Context, string) (classify.Result, error) {
	panic("not used")
}

func (f *rateLimitedTwice) ClassifyBatch(context.Context, []string) ([]classify.Result, error) {
	f.calls++
	if f.calls <= 2 {
		return nil, perr.RateLimitedf("try later")
	}
	return f.ok, nil
}

func TestRunClampsLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 30},
		{-1, 30},
		{25, 25},
		{200, 200},
		{900, 200},
	}
	for _, tc := range cases {
		r := &fakeRepo{}
		svc, _ := newSvc(r, &fakeClassifier{})
		if _, err := svc.Run(context.Background(), domain.RunInput{Limit: tc.in}); err != nil {
			t.Fatalf("Run(%d): %v", tc.in, err)
		}
		if r.claimLimit != tc.want {
			t.Fatalf("Run(%d): repo saw limit %d, want %d", tc.in, r.claimLimit, tc.want)
		}
	}
}

func TestRunRecordErrorRollsBack(t *testing.T) {
	r := &fakeRepo{
		backlog:   []repo.ClaimedRow{{ID: 1, WordNorm: "a"}},
		recordErr: perr.DBf("boom"),
	}
	svc, db := newSvc(r, &fakeClassifier{results: []classify.Result{{Pos: classify.PositionNeutral, Confidence: 0.3}}})

	if _, err := svc.Run(context.Background(), domain.RunInput{}); err == nil {
		t.Fatal("want record error surfaced")
	}
	if !db.rolledBack {
		t.Fatal("record failure must roll the sweep back")
	}
}
