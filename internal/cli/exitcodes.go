package cli

import (
	"errors"
	"io/fs"

	"github.com/yaklabco/forummark/internal/configloader"
)

// Exit codes for forummark.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitFailure indicates a generic failure.
	ExitFailure = 1

	// ExitResolveFailures indicates rendering finished but some formulas
	// could not be resolved (with --strict).
	ExitResolveFailures = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrResolveFailures is returned by render --strict when a formula failed.
var ErrResolveFailures = errors.New("formula resolution failures")

// ErrUsage marks invalid flag or argument combinations.
var ErrUsage = errors.New("invalid usage")

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	var validationErr *configloader.ValidationError
	var pathErr *fs.PathError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrResolveFailures):
		return ExitResolveFailures
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.As(err, &validationErr):
		return ExitConfigError
	case errors.As(err, &pathErr):
		return ExitIOError
	default:
		return ExitFailure
	}
}
