package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoTEIText          = errors.New("no TEI text element")
	ErrMissingColumn      = errors.New("missing column")
	ErrUnknownToken       = errors.New("token not in type dictionary")
	ErrUnknownDocument    = errors.New("label not in document dictionary")
	ErrInvalidSegmentSize = errors.New("segment size must be positive")
	ErrNotFound           = errors.New("not found")
	ErrUnavailable        = errors.New("backend unavailable")
	ErrInternal           = errors.New("internal error")
)

// Exit codes returned by the CLI.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNoInput  = 66
	ExitDataErr  = 65
	ExitSoftware = 70
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// ExitCode maps an error returned by a command to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidSegmentSize):
		return ExitUsage
	case errors.Is(err, ErrNotFound):
		return ExitNoInput
	case errors.Is(err, ErrNoTEIText), errors.Is(err, ErrMissingColumn),
		errors.Is(err, ErrUnknownToken), errors.Is(err, ErrUnknownDocument):
		return ExitDataErr
	case errors.Is(err, ErrInternal):
		return ExitSoftware
	default:
		return ExitFailure
	}
}
