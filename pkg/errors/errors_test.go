package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsFindsTypedError(t *testing.T) {
	base := New(CodeAlreadyPaid, "submission settled")
	wrapped := fmt.Errorf("pay request: %w", base)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeAlreadyPaid {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("deadlock detected")
	err := Wrap(CodeStateConflict, cause, "update order status")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected cause to unwrap")
	}
	if err.Error() != "STATE_CONFLICT: update order status" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to internal, got %d", meta.HTTPStatus)
	}
}

func TestMetadataRetryability(t *testing.T) {
	// Only transient conflicts and internal failures are retryable; balance
	// and precondition failures never are.
	cases := map[Code]bool{
		CodeStateConflict:            true,
		CodeInternal:                 true,
		CodeDependency:               true,
		CodeInsufficientBalance:      false,
		CodeInsufficientOnCompletion: false,
		CodePrecondition:             false,
		CodeInvalidTransition:        false,
		CodeAlreadyPaid:              false,
	}
	for code, want := range cases {
		if got := MetadataFor(code).Retryable; got != want {
			t.Fatalf("code %s retryable=%v, want %v", code, got, want)
		}
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotReady, "order not ready"))
	if !HasCode(err, CodeNotReady) {
		t.Fatal("expected HasCode to match through wrapping")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatal("HasCode matched wrong code")
	}
	if HasCode(nil, CodeNotFound) {
		t.Fatal("nil error should never match")
	}
}
