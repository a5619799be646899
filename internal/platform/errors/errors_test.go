package errors

import (
	stderrs "errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestCodeRoundTrip(t *testing.T) {
	err := Validationf("word too long")
	if !IsCode(err, ErrorCodeValidation) {
		t.Fatalf("CodeOf = %v, want validation", CodeOf(err))
	}
	if got := HTTPStatus(err); got != http.StatusBadRequest {
		t.Fatalf("HTTPStatus = %d, want 400", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrs.New("boom")
	err := Wrap(cause, ErrorCodeDB, "insert submission")
	if Root(err) != cause {
		t.Fatal("Root should return the deepest cause")
	}
	if !stderrs.Is(err, cause) {
		t.Fatal("errors.Is should see the cause through the wrap")
	}
	e, ok := As(err)
	if !ok || e.Code() != ErrorCodeDB {
		t.Fatalf("As = %v %v", e, ok)
	}
}

func TestWireFromForeignError(t *testing.T) {
	w := WireFrom(stderrs.New("plain"))
	if w.Code != ErrorCodeUnknown || w.Message != "plain" {
		t.Fatalf("WireFrom = %+v", w)
	}
	if (WireFrom(nil) != Wire{}) {
		t.Fatal("WireFrom(nil) should be zero")
	}
}

func TestFromPostgresMapsSQLStates(t *testing.T) {
	cases := []struct {
		state string
		code  ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23502", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"55P03", ErrorCodeDB},
		{"57P03", ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		pgErr := &pgconn.PgError{Code: tc.state}
		err := FromPostgres(pgErr, "op failed")
		if got := CodeOf(err); got != tc.code {
			t.Fatalf("state %s mapped to %v, want %v", tc.state, got, tc.code)
		}
	}
}

func TestIsDuplicateKeyThroughWrap(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	err := Wrap(pgErr, ErrorCodeDB, "memo write")
	if !IsDuplicateKey(err) {
		t.Fatal("IsDuplicateKey should see through wrapping")
	}
}
