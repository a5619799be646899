package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"kilter/internal/adapters/classify"
	"kilter/internal/modkit/repokit"
	perr "kilter/internal/platform/errors"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/retry"
	"kilter/internal/services/submissions/domain"
	"kilter/internal/services/submissions/repo"
)

// fakeRepo is an in-memory stand-in for the postgres repo
type fakeRepo struct {
	cache map[string]float64
	memo  map[string]float64

	inserted    []repo.SubmissionRow
	recentLimit int
	nextID      int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{cache: map[string]float64{}, memo: map[string]float64{}}
}

func (f *fakeRepo) CachedScore(_ context.Context, canon string) (float64, bool, error) {
	s, ok := f.cache[canon]
	return s, ok, nil
}

func (f *fakeRepo) MemoScore(_ context.Context, canon string, score float64) error {
	if _, ok := f.memo[canon]; !ok {
		f.memo[canon] = score
	}
	return nil
}

func (f *fakeRepo) InsertAnalyzed(_ context.Context, raw, canon string, score float64) (repo.SubmissionRow, error) {
	f.nextID++
	now := time.Now()
	row := repo.SubmissionRow{
		ID: f.nextID, WordRaw: raw, WordNorm: canon,
		Score: &score, AnalyzedAt: &now, CreatedAt: now,
	}
	f.inserted = append(f.inserted, row)
	return row, nil
}

func (f *fakeRepo) Recent(_ context.Context, limit int) ([]repo.SubmissionRow, error) {
	f.recentLimit = limit
	return nil, nil
}

type fakeBinder struct{ r *fakeRepo }

func (b fakeBinder) Bind(repokit.Queryer) repo.Repo { return b.r }

// fakeDB satisfies TxRunner without touching a database
type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (fakeDB) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error   { return fn(fakeDB{}) }

type fakeClassifier struct {
	res   classify.Result
	errs  []error // consumed per call, nil entry means success
	calls int
}

func (f *fakeClassifier) ClassifyOne(context.Context, string) (classify.Result, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return classify.Result{}, err
		}
	}
	return f.res, nil
}

func (f *fakeClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]classify.Result, error) {
	out := make([]classify.Result, 0, len(texts))
	for range texts {
		r, err := f.ClassifyOne(ctx, "")
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// noSleep keeps retry loops instant in tests
func noSleep() retry.Policy {
	return retry.Default().WithSeams(
		func(context.Context, time.Duration) error { return nil },
		func(int64) int64 { return 0 },
	)
}

func newSvc(r *fakeRepo, c classify.Classifier) *Svc {
	return New(fakeDB{}, fakeBinder{r: r}, c, limiter.New(3), noSleep(), Config{})
}

func TestSubmitCacheHitSkipsClassifier(t *testing.T) {
	r := newFakeRepo()
	r.cache["entropy"] = 0.5
	c := &fakeClassifier{}

	out, err := newSvc(r, c).Submit(context.Background(), domain.SubmitInput{Word: "  Entropy "})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.calls != 0 {
		t.Fatalf("cache hit must not call the classifier, got %d calls", c.calls)
	}
	if !out.Cached || out.Score != 0.5 || out.WordNorm != "entropy" {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(r.inserted) != 1 || r.inserted[0].WordRaw != "Entropy" {
		t.Fatalf("submission row not recorded: %+v", r.inserted)
	}
}

func TestSubmitCacheMissClassifiesAndMemoizes(t *testing.T) {
	r := newFakeRepo()
	c := &fakeClassifier{res: classify.Result{Pos: classify.PositionOrder, Score: 0.8, Confidence: 0.9}}

	out, err := newSvc(r, c).Submit(context.Background(), domain.SubmitInput{Word: "tidy"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("want one classifier call, got %d", c.calls)
	}
	if out.Cached || out.Score != 0.8 || out.Degraded {
		t.Fatalf("unexpected output %+v", out)
	}
	if got, ok := r.memo["tidy"]; !ok || got != 0.8 {
		t.Fatalf("score not memoized: %v %v", got, ok)
	}
}

func TestSubmitDegradesOnClassifierFailureWithoutMemoizing(t *testing.T) {
	r := newFakeRepo()
	c := &fakeClassifier{errs: []error{perr.Unavailablef("upstream down")}}

	out, err := newSvc(r, c).Submit(context.Background(), domain.SubmitInput{Word: "riot"})
	if err != nil {
		t.Fatalf("degraded submit must still succeed, got %v", err)
	}
	if !out.Degraded || out.Score != 0 {
		t.Fatalf("want neutral degraded output, got %+v", out)
	}
	if len(r.inserted) != 1 {
		t.Fatalf("degraded submission must still be stored")
	}
	if len(r.memo) != 0 {
		t.Fatalf("degraded score must not be memoized: %+v", r.memo)
	}
}

func TestSubmitRetriesRateLimitThenSucceeds(t *testing.T) {
	r := newFakeRepo()
	c := &fakeClassifier{
		res: classify.Result{Pos: classify.PositionChaos, Score: -0.6, Confidence: 0.7},
		errs: []error{
			perr.RateLimitedf("try later"),
			perr.RateLimitedf("try later"),
			nil,
		},
	}

	out, err := newSvc(r, c).Submit(context.Background(), domain.SubmitInput{Word: "storm"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.calls != 3 {
		t.Fatalf("want 3 attempts, got %d", c.calls)
	}
	if out.Degraded || out.Score != -0.6 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestSubmitRejectsEmptyWord(t *testing.T) {
	r := newFakeRepo()
	svc := newSvc(r, &fakeClassifier{})

	for _, in := range []string{"", "   ", "​‍"} {
		_, err := svc.Submit(context.Background(), domain.SubmitInput{Word: in})
		if !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("input %q: want validation error, got %v", in, err)
		}
	}
	if len(r.inserted) != 0 {
		t.Fatalf("rejected input must not be stored")
	}
}

func TestSubmitRejectsOverlongWord(t *testing.T) {
	r := newFakeRepo()
	svc := newSvc(r, &fakeClassifier{})

	_, err := svc.Submit(context.Background(), domain.SubmitInput{Word: strings.Repeat("a", 61)})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), domain.SubmitInput{Word: strings.Repeat("a", 60)}); err != nil {
		t.Fatalf("60 runes must pass: %v", err)
	}
}

func TestRecentClampsLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 10},
		{-3, 10},
		{5, 5},
		{100, 100},
		{500, 100},
	}
	for _, tc := range cases {
		r := newFakeRepo()
		if _, err := newSvc(r, &fakeClassifier{}).Recent(context.Background(), tc.in); err != nil {
			t.Fatalf("Recent(%d): %v", tc.in, err)
		}
		if r.recentLimit != tc.want {
			t.Fatalf("Recent(%d): repo saw limit %d, want %d", tc.in, r.recentLimit, tc.want)
		}
	}
}
