package entities

import (
	"errors"
	"fmt"
)

// ErrorType is the stable classification reported for a failure.
type ErrorType string

const (
	ErrorTypeOutOfDisk                         ErrorType = "out_of_disk"
	ErrorTypeOutOfMemory                       ErrorType = "out_of_memory"
	ErrorTypeAllVersionsIgnored                ErrorType = "all_versions_ignored"
	ErrorTypeUnexpectedExternalCode            ErrorType = "unexpected_external_code"
	ErrorTypeUnauthorized                      ErrorType = "unauthorized"
	ErrorTypeInconsistentRegistryResponse      ErrorType = "inconsistent_registry_response"
	ErrorTypeDependencyFileNotFound            ErrorType = "dependency_file_not_found"
	ErrorTypeDependencyFileNotParseable        ErrorType = "dependency_file_not_parseable"
	ErrorTypeDependencyFileNotResolvable       ErrorType = "dependency_file_not_resolvable"
	ErrorTypeGitDependenciesNotReachable       ErrorType = "git_dependencies_not_reachable"
	ErrorTypePrivateSourceAuthenticationFailed ErrorType = "private_source_authentication_failure"
	ErrorTypePrivateSourceTimedOut             ErrorType = "private_source_timed_out"
	ErrorTypeUpdateFailed                      ErrorType = "update_failed"
	ErrorTypeUnknown                           ErrorType = "unknown_error"
)

// Run-halting conditions. Any error wrapping one of these aborts the whole run.
var (
	ErrOutOfDisk              = errors.New("out of disk space")
	ErrOutOfMemory            = errors.New("out of memory")
	ErrAllVersionsIgnored     = errors.New("all versions ignored")
	ErrUnexpectedExternalCode = errors.New("unexpected external code execution")
	ErrUnauthorized           = errors.New("unauthorized")
)

// AllVersionsIgnoredError is raised by a checker when ignore conditions
// exclude every candidate version of a dependency.
type AllVersionsIgnoredError struct {
	Dependency string
}

func (e *AllVersionsIgnoredError) Error() string {
	return fmt.Sprintf("all versions of %q are ignored", e.Dependency)
}

func (e *AllVersionsIgnoredError) Unwrap() error { return ErrAllVersionsIgnored }

// UpdaterError is a recoverable failure with a known classification.
type UpdaterError struct {
	Type    ErrorType
	Details map[string]any
	Err     error
}

// NewUpdaterError builds an UpdaterError wrapping err.
func NewUpdaterError(errorType ErrorType, err error, details map[string]any) *UpdaterError {
	return &UpdaterError{Type: errorType, Details: details, Err: err}
}

func (e *UpdaterError) Error() string {
	if e.Err == nil {
		return string(e.Type)
	}
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *UpdaterError) Unwrap() error { return e.Err }

// InconsistentRegistryResponseError is a transient registry inconsistency: the
// registry advertised something it then failed to serve.
type InconsistentRegistryResponseError struct {
	Registry string
	Err      error
}

func (e *InconsistentRegistryResponseError) Error() string {
	return fmt.Sprintf("inconsistent response from registry %q: %v", e.Registry, e.Err)
}

func (e *InconsistentRegistryResponseError) Unwrap() error { return e.Err }
