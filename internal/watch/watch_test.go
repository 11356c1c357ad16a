package watch

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/display"
	"github.com/vdesk-project/vdesk/internal/logging"
	"github.com/vdesk-project/vdesk/internal/service"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	sess, err := display.NewSession(1, "desktop", t.TempDir())
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	sess.TmpDir = t.TempDir()
	return New(config.Default(), nil, sess, logging.NopLogger())
}

func TestUpdate_QuitKeys(t *testing.T) {
	keys := map[string]tea.KeyMsg{
		"q":      {Type: tea.KeyRunes, Runes: []rune("q")},
		"esc":    {Type: tea.KeyEsc},
		"ctrl+c": {Type: tea.KeyCtrlC},
	}

	for name, key := range keys {
		t.Run(name, func(t *testing.T) {
			m := newTestModel(t)

			_, cmd := m.Update(key)
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("key %q did not quit", name)
			}
		})
	}
}

func TestUpdate_SnapshotStored(t *testing.T) {
	m := newTestModel(t)

	snap := snapshot{
		Units:         []service.UnitStatus{{Unit: "vdesk-vnc@1.service", State: service.StateActive, Enabled: true}},
		SocketPresent: true,
		Taken:         time.Now(),
	}
	updated, _ := m.Update(snapshotMsg(snap))

	got := updated.(Model)
	if !got.haveSnap {
		t.Fatal("snapshot not recorded")
	}
	if len(got.snap.Units) != 1 || got.snap.Units[0].State != service.StateActive {
		t.Errorf("snap.Units = %+v", got.snap.Units)
	}
}

func TestUpdate_TickTriggersRefresh(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule a refresh")
	}
}

func TestView_BeforeFirstSnapshot(t *testing.T) {
	m := newTestModel(t)

	out := m.View()
	if !strings.Contains(out, "collecting state") {
		t.Errorf("initial view = %q", out)
	}
}

func TestView_RendersSnapshot(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(snapshotMsg(snapshot{
		Units: []service.UnitStatus{
			{Unit: "vdesk-vnc@1.service", State: service.StateActive, Enabled: true},
			{Unit: "vdesk-novnc.service", State: service.StateFailed},
		},
		SocketPresent: true,
		LockPresent:   false,
		Taken:         time.Now(),
	}))

	out := updated.(Model).View()
	for _, want := range []string{
		"vdesk-vnc@1.service",
		"active",
		"(enabled)",
		"vdesk-novnc.service",
		"failed",
		"X11 socket",
		"present",
		"lock file",
		"absent",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestRefresh_ObservesArtifacts(t *testing.T) {
	m := newTestModel(t)

	// Create the socket entry so the snapshot sees it
	if err := os.MkdirAll(m.session.SocketDir(), 0755); err != nil {
		t.Fatalf("failed to create socket dir: %v", err)
	}
	if err := os.WriteFile(m.session.SocketEntry(), nil, 0644); err != nil {
		t.Fatalf("failed to create socket entry: %v", err)
	}

	msg := m.refresh()()
	snap, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("refresh produced %T, want snapshotMsg", msg)
	}
	if !snap.SocketPresent {
		t.Error("snapshot should see the socket entry")
	}
	if snap.LockPresent {
		t.Error("snapshot should not see a lock file")
	}
}
