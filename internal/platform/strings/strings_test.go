package strings

import (
	"testing"

	"kilter/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	t.Parallel()

	def := []string{"a"}
	if got := IfEmpty(nil, def); len(got) != 1 || got[0] != "a" {
		t.Fatalf("nil input: %v", got)
	}
	in := []string{"x", "y"}
	if got := IfEmpty(in, def); len(got) != 2 {
		t.Fatalf("non-empty input replaced: %v", got)
	}
}

func TestMustString(t *testing.T) {
	t.Parallel()

	if got := MustString("submissions", "module name"); got != "submissions" {
		t.Fatalf("got %q", got)
	}
	testkit.MustPanic(t, func() { MustString("   ", "module name") })
}

func TestMustPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"/stats", "/stats"},
		{"stats", "/stats"},
		{" /stats/ ", "/stats"},
		{"//sweep//", "/sweep"},
	}
	for _, tc := range cases {
		if got := MustPrefix(tc.in); got != tc.want {
			t.Fatalf("MustPrefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	testkit.MustPanic(t, func() { MustPrefix("") })
	testkit.MustPanic(t, func() { MustPrefix(" / ") })
}

func TestDeref(t *testing.T) {
	t.Parallel()

	if Deref(nil) != "" {
		t.Fatal("nil must deref to empty")
	}
	s := "entropy"
	if Deref(&s) != "entropy" {
		t.Fatal("deref mismatch")
	}
}
