// Package internal contains cross-package tests that verify the pieces
// of a deployment agree with each other: the session derived from a
// config, the reset sweep over that session's artifacts, and the
// systemd units that reference the same display.
package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/display"
	"github.com/vdesk-project/vdesk/internal/logging"
	"github.com/vdesk-project/vdesk/internal/service"
)

// fakeLister and fakeSignaler mirror the process-table fakes used by the
// display package's own tests.
type fakeLister struct {
	procs []display.Process
}

func (f fakeLister) List() ([]display.Process, error) {
	return f.procs, nil
}

type fakeSignaler struct {
	mu     sync.Mutex
	killed map[int]bool
}

func (f *fakeSignaler) Kill(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.killed == nil {
		f.killed = make(map[int]bool)
	}
	f.killed[pid] = true
	return nil
}

func (f *fakeSignaler) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.killed[pid]
}

// TestConfigToResetFlow drives a reset through a session built the same
// way the CLI builds one: from the config's display number and resolved
// home directory.
func TestConfigToResetFlow(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Number = 1
	cfg.VNC.User = "desktop"
	cfg.VNC.Home = t.TempDir()
	cfg.Service.SettleSeconds = 0

	sess, err := display.NewSession(cfg.Display.Number, cfg.VNC.User, cfg.VNC.ResolveHome())
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	sess.TmpDir = t.TempDir()

	// Plant the artifacts a crashed session leaves behind
	vncDir := filepath.Join(sess.Home, ".vnc")
	if err := os.MkdirAll(vncDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.MkdirAll(sess.SocketDir(), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	artifacts := []string{
		sess.LockFile(),
		sess.SocketEntry(),
		filepath.Join(vncDir, "host:1.pid"),
		filepath.Join(vncDir, "host:1.log"),
	}
	for _, path := range artifacts {
		if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}
	// An artifact for a different display must survive
	survivor := filepath.Join(vncDir, "host:11.pid")
	if err := os.WriteFile(survivor, []byte("live"), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", survivor, err)
	}

	signaler := &fakeSignaler{}
	manager := display.NewManager(logging.NopLogger(),
		display.WithSettleInterval(cfg.Service.SettleInterval()),
		display.WithLister(fakeLister{procs: []display.Process{
			{PID: 100, Argv: []string{"/usr/bin/Xtigervnc", ":1", "-geometry", cfg.Display.Geometry}},
			{PID: 200, Argv: []string{"/usr/bin/Xtigervnc", ":11"}},
		}}),
		display.WithSignaler(signaler),
		display.WithHostname("host"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := manager.Reset(ctx, sess); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	for _, path := range artifacts {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("artifact %s should be removed", path)
		}
	}
	if _, err := os.Stat(survivor); err != nil {
		t.Errorf("display :11 artifact should survive a :1 reset: %v", err)
	}

	signaler.mu.Lock()
	defer signaler.mu.Unlock()
	if !signaler.killed[100] {
		t.Error("display :1 server should be killed")
	}
	if signaler.killed[200] {
		t.Error("display :11 server must not be killed")
	}
}

// TestUnitsReferenceConfiguredDisplay checks that the rendered units and
// the session artifacts agree on the display identity.
func TestUnitsReferenceConfiguredDisplay(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Number = 3
	cfg.VNC.User = "desktop"
	cfg.VNC.Home = t.TempDir()
	cfg.Service.UnitDir = t.TempDir()

	written, err := service.WriteUnits(cfg)
	if err != nil {
		t.Fatalf("WriteUnits failed: %v", err)
	}

	var novnc string
	for _, path := range written {
		if filepath.Base(path) == service.NoVNCUnitFile {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			novnc = string(data)
		}
	}
	if novnc == "" {
		t.Fatal("noVNC unit not written")
	}

	// The bridge must target the same VNC port the display implies
	if !strings.Contains(novnc, "localhost:5903") {
		t.Errorf("noVNC unit does not target display :3's port:\n%s", novnc)
	}
	if !strings.Contains(novnc, service.VNCUnitName(3)) {
		t.Errorf("noVNC unit does not depend on %s:\n%s", service.VNCUnitName(3), novnc)
	}
}
