package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Fatal("nil should stay nil")
	}

	nf := NotFound("Case")
	if got := Wrap(fmt.Errorf("load: %w", nf)); !IsNotFound(got) {
		t.Fatalf("application error lost: %v", got)
	}

	cause := errors.New("connection reset")
	got, ok := As(Wrap(cause))
	if !ok || got.Status != http.StatusInternalServerError || !errors.Is(got, cause) {
		t.Fatalf("expected upstream wrapping, got %#v", got)
	}
	if got.Message != "Internal Server Error" {
		t.Fatalf("cause leaked into message: %q", got.Message)
	}
}

func TestError_Strings(t *testing.T) {
	if s := NotFound("Client").Error(); s != "Client not found" {
		t.Fatalf("got %q", s)
	}
	if s := Upstream(errors.New("boom")).Error(); s != "INTERNAL_SERVER_ERROR: boom" {
		t.Fatalf("got %q", s)
	}
	if s := Field("email", "Invalid").Fields["email"][0]; s != "Invalid" {
		t.Fatalf("got %q", s)
	}
	if !IsConflict(Conflict("dup")) || IsConflict(NotFound("x")) {
		t.Fatal("IsConflict mismatch")
	}
}
