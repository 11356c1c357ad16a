// Package errors provides centralized error definitions and error handling
// utilities for the vdesk codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and
// error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - DisplayError: errors related to display-session lifecycle management
//   - ServiceError: errors related to systemd unit management
//   - InstallError: errors related to package installation
//
// Semantic errors represent common error conditions:
//   - PermissionError: an operation was refused by the operating system
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewDisplayError("failed to remove lock file", cause).WithDisplay(1)
//
//	// Semantic error
//	err := errors.NewPermissionError("remove", "/tmp/.X1-lock", cause)
//
// Checking errors:
//
//	// Check for specific sentinel errors
//	if errors.Is(err, errors.ErrPermissionDenied) { ... }
//
//	// Use classification helpers
//	if errors.IsPermission(err) { ... }
//	if errors.IsUserFacing(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Display-related sentinel errors
var (
	// ErrPermissionDenied indicates an attempted termination or removal was
	// refused by the operating system.
	ErrPermissionDenied = New("permission denied")
	// ErrInvalidDisplay indicates a display number outside the valid range.
	ErrInvalidDisplay = New("invalid display number")
)

// Service-related sentinel errors
var (
	// ErrServiceNotFound indicates a systemd unit could not be found.
	ErrServiceNotFound = New("service not found")
	// ErrSystemctlUnavailable indicates systemctl is not on PATH.
	ErrSystemctlUnavailable = New("systemctl not available")
)

// Install-related sentinel errors
var (
	// ErrPackageManagerNotFound indicates no supported package manager was detected.
	ErrPackageManagerNotFound = New("no supported package manager found")
	// ErrInstallFailed indicates a package installation command failed.
	ErrInstallFailed = New("package installation failed")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// VdeskError is the base interface for all vdesk errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type VdeskError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// DisplayError represents errors related to display-session lifecycle management.
//
// Example:
//
//	err := errors.NewDisplayError("failed to remove lock file", cause)
//	err = err.WithDisplay(1).WithArtifact("/tmp/.X1-lock")
type DisplayError struct {
	baseError
	Display  int
	Artifact string
}

// NewDisplayError creates a new DisplayError.
func NewDisplayError(message string, cause error) *DisplayError {
	return &DisplayError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Display: -1, // -1 indicates not set
	}
}

// WithDisplay adds a display number to the error context.
func (e *DisplayError) WithDisplay(n int) *DisplayError {
	e.Display = n
	return e
}

// WithArtifact adds an artifact path to the error context.
func (e *DisplayError) WithArtifact(path string) *DisplayError {
	e.Artifact = path
	return e
}

// WithSeverity sets the error severity.
func (e *DisplayError) WithSeverity(s Severity) *DisplayError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *DisplayError) Error() string {
	var parts []string
	if e.Display >= 0 {
		parts = append(parts, fmt.Sprintf("display=:%d", e.Display))
	}
	if e.Artifact != "" {
		parts = append(parts, fmt.Sprintf("artifact=%s", e.Artifact))
	}

	prefix := "display error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("display error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DisplayError) Is(target error) bool {
	if _, ok := target.(*DisplayError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ServiceError represents errors related to systemd unit management.
//
// Example:
//
//	err := errors.NewServiceError("failed to enable unit", cause).WithUnit("vdesk-vnc@1.service")
type ServiceError struct {
	baseError
	Unit   string
	Output string // Captured systemctl output
}

// NewServiceError creates a new ServiceError.
func NewServiceError(message string, cause error) *ServiceError {
	return &ServiceError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithUnit adds a unit name to the error context.
func (e *ServiceError) WithUnit(unit string) *ServiceError {
	e.Unit = unit
	return e
}

// WithOutput adds captured command output to the error context.
func (e *ServiceError) WithOutput(output string) *ServiceError {
	e.Output = output
	return e
}

// Error returns the formatted error message.
func (e *ServiceError) Error() string {
	prefix := "service error"
	if e.Unit != "" {
		prefix = fmt.Sprintf("service error [unit=%s]", e.Unit)
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\nsystemctl output: %s", msg, e.Output)
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *ServiceError) Is(target error) bool {
	if _, ok := target.(*ServiceError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// InstallError represents errors related to package installation.
//
// Example:
//
//	err := errors.NewInstallError("apt install failed", cause).WithPackages("xfce4", "tigervnc-standalone-server")
type InstallError struct {
	baseError
	Manager  string
	Packages []string
}

// NewInstallError creates a new InstallError.
func NewInstallError(message string, cause error) *InstallError {
	return &InstallError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithManager adds the package manager name to the error context.
func (e *InstallError) WithManager(manager string) *InstallError {
	e.Manager = manager
	return e
}

// WithPackages adds the affected package names to the error context.
func (e *InstallError) WithPackages(packages ...string) *InstallError {
	e.Packages = append(e.Packages, packages...)
	return e
}

// Error returns the formatted error message.
func (e *InstallError) Error() string {
	var parts []string
	if e.Manager != "" {
		parts = append(parts, fmt.Sprintf("manager=%s", e.Manager))
	}
	if len(e.Packages) > 0 {
		parts = append(parts, fmt.Sprintf("packages=%s", strings.Join(e.Packages, ",")))
	}

	prefix := "install error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("install error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InstallError) Is(target error) bool {
	if _, ok := target.(*InstallError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// PermissionError represents an operation refused by the operating system.
// It is the only error class the lifecycle manager surfaces to callers:
// absence of a target is success, not an error.
//
// Example:
//
//	err := errors.NewPermissionError("remove", "/tmp/.X1-lock", cause)
//	fmt.Println(err) // "permission denied: remove /tmp/.X1-lock: ..."
type PermissionError struct {
	baseError
	Operation string
	Target    string
}

// NewPermissionError creates a new PermissionError.
func NewPermissionError(operation, target string, cause error) *PermissionError {
	return &PermissionError{
		baseError: baseError{
			message:    fmt.Sprintf("%s %s", operation, target),
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Operation: operation,
		Target:    target,
	}
}

// Error returns the formatted error message.
func (e *PermissionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("permission denied: %s %s: %v", e.Operation, e.Target, e.cause)
	}
	return fmt.Sprintf("permission denied: %s %s", e.Operation, e.Target)
}

// Is checks if this error matches the target.
func (e *PermissionError) Is(target error) bool {
	if _, ok := target.(*PermissionError); ok {
		return true
	}
	if errors.Is(target, ErrPermissionDenied) {
		return true
	}
	return e.baseError.Is(target)
}

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("unit", "vdesk-novnc.service")
//	fmt.Println(err) // "unit 'vdesk-novnc.service' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("display number must be positive")
//	err = err.WithField("display.number").WithValue(-1)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsPermission returns true if the error represents an operation refused by
// the operating system. This checks for:
//   - PermissionError instances (including any joined via errors.Join)
//   - Errors wrapping ErrPermissionDenied
//   - Errors wrapping fs.ErrPermission, syscall.EPERM, or syscall.EACCES
//
// Example:
//
//	if errors.IsPermission(err) {
//	    log.Warn("partial cleanup", "err", err)
//	}
func IsPermission(err error) bool {
	if err == nil {
		return false
	}

	var permErr *PermissionError
	if As(err, &permErr) {
		return true
	}

	return Is(err, ErrPermissionDenied) ||
		Is(err, fs.ErrPermission) ||
		Is(err, syscall.EPERM) ||
		Is(err, syscall.EACCES)
}

// IsUserFacing returns true if the error message is safe to display to end users.
// This checks for:
//   - Errors implementing VdeskError with IsUserFacing() returning true
//   - Semantic errors (PermissionError, NotFoundError, ValidationError)
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements VdeskError
	var vdeskErr VdeskError
	if As(err, &vdeskErr) {
		return vdeskErr.IsUserFacing()
	}

	// Semantic errors are always user-facing
	var permission *PermissionError
	var notFound *NotFoundError
	var validation *ValidationError

	if As(err, &permission) || As(err, &notFound) || As(err, &validation) {
		return true
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement VdeskError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	// Check if error implements VdeskError
	var vdeskErr VdeskError
	if As(err, &vdeskErr) {
		return vdeskErr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to render unit file")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to reset display :%d", display)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
