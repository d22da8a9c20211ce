package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// SubstrateError Tests
// -----------------------------------------------------------------------------

func TestNewSubstrateError(t *testing.T) {
	cause := fmt.Errorf("exec: \"tmux\": executable file not found in $PATH")
	err := NewSubstrateError("tmux not on PATH", cause)

	if err.message != "tmux not on PATH" {
		t.Errorf("message = %q, want %q", err.message, "tmux not on PATH")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if !err.IsFatal() {
		t.Error("IsFatal() = false, want true")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestSubstrateError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SubstrateError
		want string
	}{
		{
			name: "basic error",
			err:  NewSubstrateError("server unreachable", nil),
			want: "substrate error: server unreachable",
		},
		{
			name: "with socket",
			err:  NewSubstrateError("server unreachable", nil).WithSocket("crewmux"),
			want: "substrate error [socket=crewmux]: server unreachable",
		},
		{
			name: "with socket and cause",
			err:  NewSubstrateError("command failed", fmt.Errorf("exit status 1")).WithSocket("crewmux"),
			want: "substrate error [socket=crewmux]: command failed: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubstrateError_Is(t *testing.T) {
	err := NewSubstrateError("test", nil)

	if !Is(err, &SubstrateError{}) {
		t.Error("Is(SubstrateError{}) = false, want true")
	}
	if !Is(err, ErrSubstrateUnavailable) {
		t.Error("Is(ErrSubstrateUnavailable) = false, want true")
	}
	if Is(err, ErrSessionNotFound) {
		t.Error("Is(ErrSessionNotFound) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// TopologyError Tests
// -----------------------------------------------------------------------------

func TestNewTopologyError(t *testing.T) {
	cause := ErrSessionExists
	err := NewTopologyError("failed to create session", cause)

	if err.message != "failed to create session" {
		t.Errorf("message = %q, want %q", err.message, "failed to create session")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if !err.IsFatal() {
		t.Error("IsFatal() = false, want true")
	}
}

func TestTopologyError_WithMethods(t *testing.T) {
	err := NewTopologyError("test", nil).
		WithSession("crew-grid").
		WithRole("worker2").
		WithSeverity(SeverityCritical)

	if err.Session != "crew-grid" {
		t.Errorf("Session = %q, want %q", err.Session, "crew-grid")
	}
	if err.Role != "worker2" {
		t.Errorf("Role = %q, want %q", err.Role, "worker2")
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
}

func TestTopologyError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TopologyError
		want string
	}{
		{
			name: "basic error",
			err:  NewTopologyError("split failed", nil),
			want: "topology error: split failed",
		},
		{
			name: "with session",
			err:  NewTopologyError("split failed", nil).WithSession("crew-grid"),
			want: "topology error [session=crew-grid]: split failed",
		},
		{
			name: "with all fields",
			err:  NewTopologyError("split failed", ErrPaneNotFound).WithSession("crew-grid").WithRole("worker3"),
			want: "topology error [session=crew-grid, role=worker3]: split failed: pane not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopologyError_Is(t *testing.T) {
	err := NewTopologyError("test", ErrSessionExists)

	if !Is(err, &TopologyError{}) {
		t.Error("Is(TopologyError{}) = false, want true")
	}
	if !Is(err, ErrSessionExists) {
		t.Error("Is(ErrSessionExists) = false, want true")
	}
	if Is(err, &SubstrateError{}) {
		t.Error("Is(SubstrateError{}) = true, want false")
	}
}

func TestTopologyError_Unwrap(t *testing.T) {
	cause := ErrSessionExists
	err := NewTopologyError("test", cause)

	if unwrapped := Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
}

// -----------------------------------------------------------------------------
// DeliveryError Tests
// -----------------------------------------------------------------------------

func TestNewDeliveryError(t *testing.T) {
	err := NewDeliveryError("paste failed", nil)

	if err.IsFatal() {
		t.Error("IsFatal() = true, want false")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestDeliveryError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DeliveryError
		want string
	}{
		{
			name: "basic error",
			err:  NewDeliveryError("paste failed", nil),
			want: "delivery error: paste failed",
		},
		{
			name: "with role and pane",
			err:  NewDeliveryError("paste failed", fmt.Errorf("exit status 1")).WithRole("worker1").WithPane("%3"),
			want: "delivery error [role=worker1, pane=%3]: paste failed: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeliveryError_Is(t *testing.T) {
	err := NewDeliveryError("test", nil)

	if !Is(err, &DeliveryError{}) {
		t.Error("Is(DeliveryError{}) = false, want true")
	}
	if !Is(err, ErrDeliveryFailed) {
		t.Error("Is(ErrDeliveryFailed) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// NotFoundError Tests
// -----------------------------------------------------------------------------

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("session", "crew-grid")

	if err.ResourceType != "session" {
		t.Errorf("ResourceType = %q, want %q", err.ResourceType, "session")
	}
	if err.ResourceID != "crew-grid" {
		t.Errorf("ResourceID = %q, want %q", err.ResourceID, "crew-grid")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *NotFoundError
		want string
	}{
		{
			name: "basic error",
			err:  NewNotFoundError("session", "crew-grid"),
			want: "session 'crew-grid' not found",
		},
		{
			name: "with cause",
			err:  NewNotFoundError("marker", "worker1_done").WithCause(fmt.Errorf("IO error")),
			want: "marker 'worker1_done' not found: IO error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ValidationError Tests
// -----------------------------------------------------------------------------

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "basic error",
			err:  NewValidationError("invalid input"),
			want: "validation error: invalid input",
		},
		{
			name: "with field",
			err:  NewValidationError("cannot be empty").WithField("session"),
			want: "validation error [field=session]: cannot be empty",
		},
		{
			name: "with field and value",
			err:  NewValidationError("must be positive").WithField("topology.workers").WithValue(-1),
			want: "validation error [field=topology.workers, value=-1]: must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("test")

	if !Is(err, &ValidationError{}) {
		t.Error("Is(ValidationError{}) = false, want true")
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// TimeoutError Tests
// -----------------------------------------------------------------------------

func TestTimeoutError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TimeoutError
		want string
	}{
		{
			name: "basic error",
			err:  NewTimeoutError("waiting for worker markers", 5*time.Second),
			want: "timeout error: waiting for worker markers (timeout: 5s)",
		},
		{
			name: "with cause",
			err:  NewTimeoutError("waiting", time.Minute).WithCause(fmt.Errorf("context deadline exceeded")),
			want: "timeout error: waiting (timeout: 1m0s): context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimeoutError_Is(t *testing.T) {
	err := NewTimeoutError("test", time.Second)

	if !Is(err, &TimeoutError{}) {
		t.Error("Is(TimeoutError{}) = false, want true")
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "substrate error",
			err:  NewSubstrateError("tmux gone", nil),
			want: true,
		},
		{
			name: "topology error",
			err:  NewTopologyError("split failed", nil),
			want: true,
		},
		{
			name: "delivery error",
			err:  NewDeliveryError("paste failed", nil),
			want: false,
		},
		{
			name: "wrapped substrate sentinel",
			err:  fmt.Errorf("startup: %w", ErrSubstrateUnavailable),
			want: true,
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "topology error",
			err:  NewTopologyError("test", nil),
			want: true,
		},
		{
			name: "not found error",
			err:  NewNotFoundError("session", "crew-grid"),
			want: true,
		},
		{
			name: "validation error",
			err:  NewValidationError("invalid input"),
			want: true,
		},
		{
			name: "standard error",
			err:  errors.New("internal error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{
			name: "nil error",
			err:  nil,
			want: SeverityDebug,
		},
		{
			name: "substrate error",
			err:  NewSubstrateError("test", nil),
			want: SeverityCritical,
		},
		{
			name: "topology error default",
			err:  NewTopologyError("test", nil),
			want: SeverityError,
		},
		{
			name: "delivery error",
			err:  NewDeliveryError("test", nil),
			want: SeverityWarning,
		},
		{
			name: "standard error",
			err:  errors.New("standard"),
			want: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "substrate error",
			err:  NewSubstrateError("test", nil),
			want: true,
		},
		{
			name: "topology error",
			err:  NewTopologyError("test", nil),
			want: true,
		},
		{
			name: "delivery error",
			err:  NewDeliveryError("test", nil),
			want: true,
		},
		{
			name: "not found error (semantic)",
			err:  NewNotFoundError("session", "crew-grid"),
			want: false,
		},
		{
			name: "standard error",
			err:  errors.New("test"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDomainError(tt.err); got != tt.want {
				t.Errorf("IsDomainError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Wrap/Wrapf Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		want    string
	}{
		{
			name:    "nil error",
			err:     nil,
			message: "context",
			want:    "",
		},
		{
			name:    "wrap standard error",
			err:     errors.New("base error"),
			message: "failed to reset",
			want:    "failed to reset: base error",
		},
		{
			name:    "wrap topology error",
			err:     NewTopologyError("split failed", nil),
			message: "start failed",
			want:    "start failed: topology error: split failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, tt.message)
			if tt.err == nil {
				if got != nil {
					t.Errorf("Wrap(nil) = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.want {
				t.Errorf("Wrap().Error() = %q, want %q", got.Error(), tt.want)
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	baseErr := errors.New("base error")
	err := Wrapf(baseErr, "failed to bootstrap %s", "worker2")

	want := "failed to bootstrap worker2: base error"
	if err.Error() != want {
		t.Errorf("Wrapf().Error() = %q, want %q", err.Error(), want)
	}

	if got := Wrapf(nil, "test"); got != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", got)
	}
}

// -----------------------------------------------------------------------------
// Error Chain Tests
// -----------------------------------------------------------------------------

func TestErrorChain(t *testing.T) {
	baseErr := ErrPaneNotFound
	topoErr := NewTopologyError("failed to split", baseErr).WithSession("crew-grid")
	wrappedErr := Wrap(topoErr, "start failed")

	if !Is(wrappedErr, ErrPaneNotFound) {
		t.Error("Should find ErrPaneNotFound in chain")
	}

	var extracted *TopologyError
	if !As(wrappedErr, &extracted) {
		t.Error("Should extract TopologyError from chain")
	}
	if extracted.Session != "crew-grid" {
		t.Errorf("Session = %q, want %q", extracted.Session, "crew-grid")
	}
}

// -----------------------------------------------------------------------------
// Sentinel Error Tests
// -----------------------------------------------------------------------------

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrSubstrateUnavailable,
		ErrSessionNotFound,
		ErrSessionExists,
		ErrPaneNotFound,
		ErrDeliveryFailed,
		ErrRoleNotReady,
		ErrTimeout,
		ErrCanceled,
		ErrInvalidInput,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && Is(err1, err2) {
				t.Errorf("Sentinel error %v should not match %v", err1, err2)
			}
		}
	}
}
