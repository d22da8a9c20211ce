// Package errors provides centralized error definitions and error handling
// utilities for the crewmux codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - SubstrateError: the tmux server or binary is unreachable
//   - TopologyError: sessions or panes could not be created or arranged
//   - DeliveryError: initialization text could not be delivered to a pane
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewTopologyError("failed to split pane", cause).WithSession("crew-grid")
//
//	// Semantic error
//	err := errors.NewNotFoundError("session", "crew-grid")
//
// Checking errors:
//
//	// Check for specific sentinel errors
//	if errors.Is(err, errors.ErrSessionNotFound) { ... }
//
//	// Check for error types
//	var deliveryErr *errors.DeliveryError
//	if errors.As(err, &deliveryErr) { ... }
//
//	// Use classification helpers
//	if errors.IsFatal(err) { ... }
//	if errors.IsUserFacing(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Fatal: the run cannot continue (substrate gone, topology broken)
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
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

// Substrate-related sentinel errors
var (
	// ErrSubstrateUnavailable indicates the tmux binary or server cannot be reached.
	ErrSubstrateUnavailable = New("tmux unavailable")
	// ErrSessionNotFound indicates that a tmux session could not be found.
	ErrSessionNotFound = New("session not found")
	// ErrSessionExists indicates that a tmux session already exists.
	ErrSessionExists = New("session already exists")
	// ErrPaneNotFound indicates that a tmux pane could not be found.
	ErrPaneNotFound = New("pane not found")
)

// Bootstrap-related sentinel errors
var (
	// ErrDeliveryFailed indicates that text could not be delivered to a pane.
	ErrDeliveryFailed = New("delivery failed")
	// ErrRoleNotReady indicates that a role's process never became ready.
	ErrRoleNotReady = New("role not ready")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CrewmuxError is the base interface for all crewmux errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type CrewmuxError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsFatal returns true if the run cannot meaningfully continue
	// after this error.
	IsFatal() bool

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
	fatal      bool
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

// IsFatal returns whether the run can continue after this error.
func (e *baseError) IsFatal() bool {
	return e.fatal
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SubstrateError represents a failure to reach the tmux binary or server.
// These are always fatal: nothing downstream can proceed without tmux.
//
// Example:
//
//	err := errors.NewSubstrateError("tmux not on PATH", execErr)
type SubstrateError struct {
	baseError
	Socket string
}

// NewSubstrateError creates a new SubstrateError.
func NewSubstrateError(message string, cause error) *SubstrateError {
	return &SubstrateError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			fatal:      true,
			userFacing: true,
		},
	}
}

// WithSocket adds the tmux socket name to the error context.
func (e *SubstrateError) WithSocket(socket string) *SubstrateError {
	e.Socket = socket
	return e
}

// Error returns the formatted error message.
func (e *SubstrateError) Error() string {
	prefix := "substrate error"
	if e.Socket != "" {
		prefix = fmt.Sprintf("substrate error [socket=%s]", e.Socket)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SubstrateError) Is(target error) bool {
	if _, ok := target.(*SubstrateError); ok {
		return true
	}
	if errors.Is(target, ErrSubstrateUnavailable) {
		return true
	}
	return e.baseError.Is(target)
}

// TopologyError represents a failure to create, split, or arrange the
// session/pane layout. Topology failures abort the run: a partial grid
// cannot host the crew.
//
// Example:
//
//	err := errors.NewTopologyError("failed to split pane", cause).
//		WithSession("crew-grid").WithRole("worker2")
type TopologyError struct {
	baseError
	Session string
	Role    string
}

// NewTopologyError creates a new TopologyError.
func NewTopologyError(message string, cause error) *TopologyError {
	return &TopologyError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			fatal:      true,
			userFacing: true,
		},
	}
}

// WithSession adds a session name to the error context.
func (e *TopologyError) WithSession(session string) *TopologyError {
	e.Session = session
	return e
}

// WithRole adds a role name to the error context.
func (e *TopologyError) WithRole(role string) *TopologyError {
	e.Role = role
	return e
}

// WithSeverity sets the error severity.
func (e *TopologyError) WithSeverity(s Severity) *TopologyError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *TopologyError) Error() string {
	var parts []string
	if e.Session != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.Session))
	}
	if e.Role != "" {
		parts = append(parts, fmt.Sprintf("role=%s", e.Role))
	}

	prefix := "topology error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("topology error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *TopologyError) Is(target error) bool {
	if _, ok := target.(*TopologyError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DeliveryError represents a failure to deliver initialization text to one
// pane. Delivery failures are isolated per pane and never fatal: remaining
// panes still get their text.
//
// Example:
//
//	err := errors.NewDeliveryError("paste-buffer failed", cause).
//		WithPane("%3").WithRole("worker1")
type DeliveryError struct {
	baseError
	Pane string
	Role string
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(message string, cause error) *DeliveryError {
	return &DeliveryError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			fatal:      false,
			userFacing: true,
		},
	}
}

// WithPane adds a pane ID to the error context.
func (e *DeliveryError) WithPane(pane string) *DeliveryError {
	e.Pane = pane
	return e
}

// WithRole adds a role name to the error context.
func (e *DeliveryError) WithRole(role string) *DeliveryError {
	e.Role = role
	return e
}

// Error returns the formatted error message.
func (e *DeliveryError) Error() string {
	var parts []string
	if e.Role != "" {
		parts = append(parts, fmt.Sprintf("role=%s", e.Role))
	}
	if e.Pane != "" {
		parts = append(parts, fmt.Sprintf("pane=%s", e.Pane))
	}

	prefix := "delivery error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("delivery error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DeliveryError) Is(target error) bool {
	if _, ok := target.(*DeliveryError); ok {
		return true
	}
	if errors.Is(target, ErrDeliveryFailed) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("session", "crew-grid")
//	fmt.Println(err) // "session 'crew-grid' not found"
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
			fatal:      false,
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

// AlreadyExistsError represents a resource that already exists.
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			fatal:      false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("worker count must be positive")
//	err = err.WithField("topology.workers").WithValue(-1)
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
			fatal:      false,
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

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for worker markers", 30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for worker markers (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			fatal:      false,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsFatal returns true if the error means the run cannot continue.
// This checks for:
//   - Errors implementing CrewmuxError with IsFatal() returning true
//   - Errors wrapping ErrSubstrateUnavailable
//
// Example:
//
//	if errors.IsFatal(err) {
//	    return err
//	}
//	log.Warn("continuing after non-fatal error", "err", err)
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var crewErr CrewmuxError
	if As(err, &crewErr) {
		return crewErr.IsFatal()
	}

	return Is(err, ErrSubstrateUnavailable)
}

// IsUserFacing returns true if the error message is safe to display to end users.
// This checks for:
//   - Errors implementing CrewmuxError with IsUserFacing() returning true
//   - Semantic errors (NotFoundError, AlreadyExistsError, ValidationError, TimeoutError)
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var crewErr CrewmuxError
	if As(err, &crewErr) {
		return crewErr.IsUserFacing()
	}

	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	if As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout) {
		return true
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CrewmuxError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    log.Error("fatal", "err", err)
//	case errors.SeverityWarning:
//	    log.Warn("warning", "err", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var crewErr CrewmuxError
	if As(err, &crewErr) {
		return crewErr.Severity()
	}

	return SeverityError
}

// IsDomainError returns true if the error is a domain-specific error
// (SubstrateError, TopologyError, or DeliveryError).
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}

	var substrateErr *SubstrateError
	var topologyErr *TopologyError
	var deliveryErr *DeliveryError

	return As(err, &substrateErr) || As(err, &topologyErr) || As(err, &deliveryErr)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to reset topology")
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
//	err := errors.Wrapf(baseErr, "failed to bootstrap %s", role)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
