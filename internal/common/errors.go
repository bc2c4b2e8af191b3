package common

import (
	"context"
	"errors"
	"fmt"

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
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternal         = errors.New("internal error")
	ErrDatabase         = errors.New("database error")
	ErrValidation       = errors.New("validation failed")
	ErrExtraction       = errors.New("text extraction failed")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrCanceled         = errors.New("analysis canceled")
)

// Error codes carried by AppError.
const (
	CodeExtraction       = "EXTRACTION_ERROR"
	CodeValidation       = "VALIDATION_ERROR"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeConfig           = "CONFIG_ERROR"
	CodeNotFound         = "NOT_FOUND"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewExtractionError reports an unsupported format, unreadable bytes or an empty
// extraction result. cause may be nil.
func NewExtractionError(message string, cause error) *AppError {
	return NewAppError(CodeExtraction, message, joinCause(ErrExtraction, cause))
}

// NewValidationError reports degenerate input such as zero-length text.
func NewValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, ErrValidation)
}

// NewModelUnavailableError reports a backend that cannot be reached or timed out.
func NewModelUnavailableError(model string, cause error) *AppError {
	return NewAppError(CodeModelUnavailable, model, joinCause(ErrModelUnavailable, cause))
}

func joinCause(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// IsFatal reports whether err must abort a pipeline run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrExtraction) || errors.Is(err, ErrValidation)
}

// IsCanceled reports whether err stems from context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCanceled)
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

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToStatus maps an application error onto a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrModelUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
