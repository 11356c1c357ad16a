package display

import (
	"path/filepath"
	"testing"

	"github.com/vdesk-project/vdesk/internal/errors"
)

func TestNewSession(t *testing.T) {
	sess, err := NewSession(1, "desktop", "/home/desktop")
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if sess.Display != 1 {
		t.Errorf("Display = %d, want 1", sess.Display)
	}
	if sess.User != "desktop" {
		t.Errorf("User = %q, want %q", sess.User, "desktop")
	}
}

func TestNewSession_InvalidDisplay(t *testing.T) {
	tests := []struct {
		name    string
		display int
	}{
		{"zero", 0},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(tt.display, "desktop", "/home/desktop")
			if err == nil {
				t.Fatal("NewSession should fail for non-positive display")
			}
			if !errors.Is(err, errors.ErrInvalidDisplay) {
				t.Errorf("error should wrap ErrInvalidDisplay, got %v", err)
			}
		})
	}
}

func TestNewSession_EmptyHome(t *testing.T) {
	_, err := NewSession(1, "desktop", "")
	if err == nil {
		t.Fatal("NewSession should fail for empty home")
	}

	var validationErr *errors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("error should be a ValidationError, got %T", err)
	}
}

func TestSession_ArtifactPaths(t *testing.T) {
	sess := Session{Display: 1, User: "desktop", Home: "/home/desktop"}

	if got := sess.Token(); got != ":1" {
		t.Errorf("Token() = %q, want %q", got, ":1")
	}
	if got := sess.LockFile(); got != "/tmp/.X1-lock" {
		t.Errorf("LockFile() = %q, want %q", got, "/tmp/.X1-lock")
	}
	if got := sess.SocketEntry(); got != "/tmp/.X11-unix/X1" {
		t.Errorf("SocketEntry() = %q, want %q", got, "/tmp/.X11-unix/X1")
	}
	if got := sess.PIDFile("myhost"); got != "/home/desktop/.vnc/myhost:1.pid" {
		t.Errorf("PIDFile() = %q, want %q", got, "/home/desktop/.vnc/myhost:1.pid")
	}
	if got := sess.LogFileGlob(); got != "/home/desktop/.vnc/*:1.log" {
		t.Errorf("LogFileGlob() = %q, want %q", got, "/home/desktop/.vnc/*:1.log")
	}
}

func TestSession_TmpDirOverride(t *testing.T) {
	sess := Session{Display: 2, Home: "/home/desktop", TmpDir: "/custom/tmp"}

	if got := sess.LockFile(); got != "/custom/tmp/.X2-lock" {
		t.Errorf("LockFile() = %q, want %q", got, "/custom/tmp/.X2-lock")
	}
	if got := sess.SocketEntry(); got != "/custom/tmp/.X11-unix/X2" {
		t.Errorf("SocketEntry() = %q, want %q", got, "/custom/tmp/.X11-unix/X2")
	}
}

// Glob patterns must keep the display suffix exact: display 1 artifacts
// must never match display 11 files.
func TestSession_GlobsAreDisplayExact(t *testing.T) {
	sess := Session{Display: 1, Home: "/home/desktop"}

	matched, err := filepath.Match(filepath.Base(sess.LogFileGlob()), "myhost:11.log")
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if matched {
		t.Error("display 1 log glob must not match a display 11 log")
	}

	matched, err = filepath.Match(filepath.Base(sess.PIDFileGlob()), "myhost:11.pid")
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if matched {
		t.Error("display 1 pid glob must not match a display 11 pid file")
	}

	matched, err = filepath.Match(filepath.Base(sess.LogFileGlob()), "myhost:1.log")
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !matched {
		t.Error("display 1 log glob should match its own log file")
	}
}
