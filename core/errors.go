package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DispatchErrorBadInput          = "DISPATCH_BAD_INPUT"
	DispatchErrorRouteNotFound     = "DISPATCH_ROUTE_NOT_FOUND"
	DispatchErrorInvalidIdentifier = "DISPATCH_INVALID_IDENTIFIER"
	DispatchErrorUnauthorized      = "DISPATCH_UNAUTHORIZED"
	DispatchErrorHandlerNotFound   = "DISPATCH_HANDLER_NOT_FOUND"
	DispatchErrorSecurityViolation = "DISPATCH_SECURITY_VIOLATION"
	DispatchErrorExecutionFailed   = "DISPATCH_EXECUTION_FAILED"
	DispatchErrorInternal          = "DISPATCH_INTERNAL_ERROR"
)

// dispatchErrorMapper normalizes errors into the module's envelope shape.
// Errors the module produced already carry category and text code and pass
// through with defaults filled in; everything else defers to the shared
// mappers. Message text is never inspected: a handler failure keeps its
// classification no matter what words its message happens to contain.
func dispatchErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureDispatchErrorEnvelope(richErr)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureDispatchErrorEnvelope(mapped)
}

func ensureDispatchErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = dispatchHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultDispatchTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultDispatchTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return DispatchErrorBadInput
	case goerrors.CategoryNotFound:
		return DispatchErrorHandlerNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return DispatchErrorUnauthorized
	case goerrors.CategoryOperation:
		return DispatchErrorExecutionFailed
	default:
		return DispatchErrorInternal
	}
}

func dispatchHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
