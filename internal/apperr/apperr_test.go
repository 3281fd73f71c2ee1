package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestBoundaryKeepsKnownKinds(t *testing.T) {
	notFound := NotFound("Student")
	wrapped := fmt.Errorf("lookup: %w", notFound)
	got := Boundary("Failed to fetch student profile", wrapped)
	appErr, ok := As(got)
	if !ok || appErr != notFound {
		t.Fatalf("expected original not found error, got %v", got)
	}
	if appErr.Message != "Student not found" || appErr.HTTPStatus() != http.StatusNotFound {
		t.Fatalf("unexpected not found error %+v", appErr)
	}
}

func TestBoundaryWrapsUnknownErrors(t *testing.T) {
	raw := errors.New("connection reset")
	got := Boundary("Failed to fetch candidates", raw)
	appErr, ok := As(got)
	if !ok {
		t.Fatalf("expected *Error, got %T", got)
	}
	if appErr.Kind != KindDatabase || appErr.Code != CodeDatabase || appErr.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("unexpected wrapped error %+v", appErr)
	}
	if !errors.Is(got, raw) {
		t.Fatalf("expected wrapped error to unwrap to original")
	}
	details, ok := appErr.Details.(DatabaseDetails)
	if !ok || details.Message != "connection reset" || details.Code != "UNKNOWN" {
		t.Fatalf("unexpected details %+v", appErr.Details)
	}
}

func TestDatabaseKeepsPgDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: "relation \"students\" does not exist", Detail: "d", Hint: "h"}
	appErr := Database("Failed to fetch statistics", fmt.Errorf("query: %w", pgErr))
	details := appErr.Details.(DatabaseDetails)
	if details.Code != "42P01" || details.Hint != "h" || details.Details != "d" {
		t.Fatalf("unexpected pg details %+v", details)
	}
}

func TestRateLimited(t *testing.T) {
	appErr := RateLimited(0)
	if appErr.RetryAfterHeader() != "60" || appErr.HTTPStatus() != http.StatusTooManyRequests {
		t.Fatalf("unexpected rate limit error %+v", appErr)
	}
	if Boundary("x", nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
	if !IsNotFound(NotFound("User")) || IsNotFound(appErr) {
		t.Fatalf("IsNotFound mismatch")
	}
}
