package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestDispatchErrorMapper_PlainErrorsAreNotReclassifiedByMessage(t *testing.T) {
	// Handler errors are opaque text from the mapper's point of view. Words
	// like "not found" or "invalid" in the message must not turn an execution
	// failure into a client-facing 4xx.
	for _, message := range []string{
		"record not found",
		"invalid cursor position",
		"session token required",
		"permission denied by upstream",
	} {
		mapped := dispatchErrorMapper(errors.New(message))
		if mapped == nil {
			t.Fatalf("expected mapped error for %q", message)
		}
		switch mapped.Category {
		case goerrors.CategoryBadInput, goerrors.CategoryValidation,
			goerrors.CategoryNotFound, goerrors.CategoryAuth, goerrors.CategoryAuthz:
			t.Fatalf("plain error %q reclassified to %v", message, mapped.Category)
		}
		if mapped.Code == http.StatusBadRequest || mapped.Code == http.StatusNotFound ||
			mapped.Code == http.StatusUnauthorized || mapped.Code == http.StatusForbidden {
			t.Fatalf("plain error %q mapped to client status %d", message, mapped.Code)
		}
	}
}

func TestDispatchErrorMapper_ModuleErrorsKeepTheirEnvelope(t *testing.T) {
	mapped := dispatchErrorMapper(securityViolation("core: handler path for group \"x\" escapes base path", nil))
	if mapped == nil {
		t.Fatal("expected mapped error")
	}
	if mapped.TextCode != DispatchErrorSecurityViolation {
		t.Fatalf("expected security violation text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", mapped.Code)
	}

	mapped = dispatchErrorMapper(handlerNotFound("core: handler group \"Accounts\" not found", nil))
	if mapped.TextCode != DispatchErrorHandlerNotFound || mapped.Code != http.StatusNotFound {
		t.Fatalf("unexpected envelope for handler not found: %q/%d", mapped.TextCode, mapped.Code)
	}
}

func TestDispatchErrorMapper_FillsMissingEnvelopeDefaults(t *testing.T) {
	mapped := dispatchErrorMapper(goerrors.New("grant write failed", goerrors.CategoryOperation))
	if mapped == nil {
		t.Fatal("expected mapped error")
	}
	if mapped.Code != http.StatusInternalServerError {
		t.Fatalf("expected operation errors to default to 500, got %d", mapped.Code)
	}
	if mapped.TextCode != DispatchErrorExecutionFailed {
		t.Fatalf("expected execution failure text code, got %q", mapped.TextCode)
	}
}
