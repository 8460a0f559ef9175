package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Ingestion errors. These are the only failures that propagate out of the router;
// OCR problems are reported in-band on the document instead.
var (
	ErrPathNotFound      = errors.New("file not found")
	ErrNotRegularFile    = errors.New("path is not a file")
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrLegacyFormat      = errors.New("legacy format not supported")
	ErrInvalidDocument   = errors.New("invalid document")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...any) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...any) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// CodeFromError maps the sentinel errors above to a gRPC code.
func CodeFromError(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrPathNotFound), errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrLegacyFormat):
		return codes.Unimplemented
	case errors.Is(err, ErrNotRegularFile), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidDocument):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// StatusFromError converts err into a gRPC status error.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(CodeFromError(err), err.Error())
}

// HTTPStatusFromError maps the sentinel errors above to an HTTP status.
func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPathNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrLegacyFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidDocument), errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotRegularFile), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
