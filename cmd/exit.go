package cmd

import (
	"errors"
	"fmt"

	"github.com/jandubois/jmxcheck/internal/check"
	"github.com/jandubois/jmxcheck/internal/config"
	"github.com/jandubois/jmxcheck/internal/remote"
)

// Exit codes for failures that happen before a check result exists.
const (
	ExitMissingParameter = 1
	ExitBadURL           = 2
	ExitInstanceNotFound = 3
	ExitIntrospection    = 4
	ExitRemoteAccess     = 5
	ExitIO               = 6
)

var errMissingParameter = errors.New("missing parameter")

// ExitError carries the result code of a completed check.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var accessErr *remote.AccessError
	switch {
	case errors.Is(err, errMissingParameter),
		errors.Is(err, config.ErrSectionNotFound),
		errors.Is(err, config.ErrMemberNotFound),
		errors.Is(err, check.ErrNoValue):
		return ExitMissingParameter
	case errors.Is(err, remote.ErrBadURL):
		return ExitBadURL
	case errors.As(err, &accessErr):
		return ExitRemoteAccess
	case errors.Is(err, remote.ErrInstanceNotFound):
		return ExitInstanceNotFound
	case errors.Is(err, remote.ErrIntrospection):
		return ExitIntrospection
	default:
		return ExitIO
	}
}

// describe prefixes an error message with its exit category.
func describe(err error) string {
	switch ExitCode(err) {
	case ExitMissingParameter:
		return "Missing parameter."
	case ExitBadURL:
		return "Bad agent URL."
	case ExitInstanceNotFound:
		return "Instance not found."
	case ExitIntrospection:
		return "Introspection error."
	case ExitRemoteAccess:
		return "Remote access error."
	default:
		return "IO error."
	}
}
