package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
	"testing"
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
// DisplayError Tests
// -----------------------------------------------------------------------------

func TestNewDisplayError(t *testing.T) {
	cause := ErrPermissionDenied
	err := NewDisplayError("failed to remove lock file", cause)

	if err.message != "failed to remove lock file" {
		t.Errorf("message = %q, want %q", err.message, "failed to remove lock file")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestDisplayError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DisplayError
		want string
	}{
		{
			name: "plain",
			err:  NewDisplayError("cleanup failed", nil),
			want: "display error: cleanup failed",
		},
		{
			name: "with display",
			err:  NewDisplayError("cleanup failed", nil).WithDisplay(1),
			want: "display error [display=:1]: cleanup failed",
		},
		{
			name: "with display and artifact",
			err:  NewDisplayError("cleanup failed", nil).WithDisplay(2).WithArtifact("/tmp/.X2-lock"),
			want: "display error [display=:2, artifact=/tmp/.X2-lock]: cleanup failed",
		},
		{
			name: "with cause",
			err:  NewDisplayError("cleanup failed", errors.New("boom")),
			want: "display error: cleanup failed: boom",
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

func TestDisplayError_Is(t *testing.T) {
	err := NewDisplayError("cleanup failed", ErrPermissionDenied)

	if !errors.Is(err, ErrPermissionDenied) {
		t.Error("Is(ErrPermissionDenied) = false, want true")
	}

	var displayErr *DisplayError
	if !errors.As(err, &displayErr) {
		t.Error("As(*DisplayError) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// ServiceError Tests
// -----------------------------------------------------------------------------

func TestServiceError_Error(t *testing.T) {
	err := NewServiceError("failed to enable unit", errors.New("exit status 1")).
		WithUnit("vdesk-vnc@1.service")

	want := "service error [unit=vdesk-vnc@1.service]: failed to enable unit: exit status 1"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestServiceError_WithOutput(t *testing.T) {
	err := NewServiceError("restart failed", nil).
		WithUnit("vdesk-novnc.service").
		WithOutput("Job for vdesk-novnc.service failed")

	got := err.Error()
	if !strings.Contains(got, "systemctl output: Job for vdesk-novnc.service failed") {
		t.Errorf("Error() = %q, want systemctl output included", got)
	}
}

// -----------------------------------------------------------------------------
// InstallError Tests
// -----------------------------------------------------------------------------

func TestInstallError_Error(t *testing.T) {
	err := NewInstallError("install failed", ErrInstallFailed).
		WithManager("apt").
		WithPackages("xfce4", "novnc")

	want := "install error [manager=apt, packages=xfce4,novnc]: install failed: package installation failed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestPermissionError_Error(t *testing.T) {
	err := NewPermissionError("remove", "/tmp/.X1-lock", syscall.EACCES)

	want := "permission denied: remove /tmp/.X1-lock: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPermissionError_Is(t *testing.T) {
	err := NewPermissionError("kill", "pid 1234", syscall.EPERM)

	if !errors.Is(err, ErrPermissionDenied) {
		t.Error("Is(ErrPermissionDenied) = false, want true")
	}
	if !errors.Is(err, syscall.EPERM) {
		t.Error("Is(syscall.EPERM) = false, want true")
	}
}

func TestNotFoundError_Error(t *testing.T) {
	err := NewNotFoundError("unit", "vdesk-novnc.service")

	want := "unit 'vdesk-novnc.service' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("display number must be positive").
		WithField("display.number").
		WithValue(-1)

	want := "validation error [field=display.number, value=-1]: display number must be positive"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("bad input")

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestIsPermission(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"permission error", NewPermissionError("remove", "/tmp/.X1-lock", nil), true},
		{"wrapped permission error", fmt.Errorf("reset: %w", NewPermissionError("kill", "pid 42", nil)), true},
		{"sentinel", ErrPermissionDenied, true},
		{"fs.ErrPermission", fs.ErrPermission, true},
		{"wrapped EPERM", fmt.Errorf("kill: %w", syscall.EPERM), true},
		{"wrapped EACCES", fmt.Errorf("unlink: %w", syscall.EACCES), true},
		{"joined with plain error", errors.Join(errors.New("other"), NewPermissionError("remove", "x", nil)), true},
		{"plain error", errors.New("boom"), false},
		{"not found", NewNotFoundError("unit", "x.service"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermission(tt.err); got != tt.want {
				t.Errorf("IsPermission() = %v, want %v", got, tt.want)
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
		{"nil", nil, false},
		{"display error", NewDisplayError("cleanup failed", nil), true},
		{"permission error", NewPermissionError("remove", "x", nil), true},
		{"plain error", errors.New("internal"), false},
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
		{"nil", nil, SeverityDebug},
		{"display error", NewDisplayError("x", nil), SeverityError},
		{"permission error", NewPermissionError("remove", "x", nil), SeverityWarning},
		{"plain error", errors.New("x"), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Wrap Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	base := errors.New("base")

	err := Wrap(base, "context")
	if err.Error() != "context: base" {
		t.Errorf("Wrap() = %q, want %q", err.Error(), "context: base")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match base via errors.Is")
	}

	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapf(t *testing.T) {
	base := errors.New("base")

	err := Wrapf(base, "failed to reset display :%d", 3)
	if err.Error() != "failed to reset display :3: base" {
		t.Errorf("Wrapf() = %q", err.Error())
	}

	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}
