package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsFindsCodedErrorThroughWrapping(t *testing.T) {
	t.Parallel()

	base := New(CodeNotFound, "order not found")
	wrapped := fmt.Errorf("loading order: %w", base)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected coded error in chain")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", typed.Code())
	}
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	t.Parallel()

	if typed := As(stdErrors.New("plain")); typed != nil {
		t.Fatalf("expected nil, got %v", typed)
	}
	if typed := As(nil); typed != nil {
		t.Fatalf("expected nil for nil error, got %v", typed)
	}
}

func TestIsMatchesCode(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeStateConflict, stdErrors.New("already paid"), "transition rejected")

	if !Is(err, CodeStateConflict) {
		t.Fatal("expected code match")
	}
	if Is(err, CodeNotFound) {
		t.Fatal("unexpected code match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("connection reset")
	err := Wrap(CodeGateway, cause, "provider unreachable")

	if !stdErrors.Is(err, cause) {
		t.Fatal("cause must survive wrapping")
	}
	if err.Error() != "GATEWAY_ERROR: provider unreachable" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NO_SUCH_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
	if meta.DetailsAllowed {
		t.Fatal("fallback must not leak details")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	t.Parallel()

	base := New(CodeVerification, "status code mismatch")
	wrapped := fmt.Errorf("callback: %w", base)

	dump := Dump(wrapped)
	if dump.Code != string(CodeVerification) {
		t.Fatalf("expected code in dump, got %q", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(dump.Chain))
	}
}
