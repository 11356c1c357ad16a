// Package watch implements the live view behind `vdesk status --watch`:
// a small bubbletea program that polls systemd unit state and display
// artifacts on an interval, and refreshes immediately when the X11
// socket directory changes.
package watch

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/display"
	"github.com/vdesk-project/vdesk/internal/logging"
	"github.com/vdesk-project/vdesk/internal/service"
)

// pollInterval is the fallback refresh cadence when no filesystem
// events arrive.
const pollInterval = 2 * time.Second

// snapshot is one observation of the stack's state.
type snapshot struct {
	Units         []service.UnitStatus
	SocketPresent bool
	LockPresent   bool
	Taken         time.Time
}

// Messages.
type (
	tickMsg     time.Time
	snapshotMsg snapshot
	fsEventMsg  fsnotify.Event
	watchErrMsg struct{ err error }
)

// Model is the bubbletea model for the watch view.
type Model struct {
	cfg     *config.Config
	sys     *service.Systemctl
	session display.Session
	logger  *logging.Logger

	spinner  spinner.Model
	snap     snapshot
	haveSnap bool
	watcher  *fsnotify.Watcher
	width    int
	err      error
}

// New builds a watch model. The fsnotify watcher is optional: when the
// socket directory cannot be watched the view degrades to polling only.
func New(cfg *config.Config, sys *service.Systemctl, sess display.Session, logger *logging.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		cfg:     cfg,
		sys:     sys,
		session: sess,
		logger:  logger,
		spinner: sp,
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if werr := watcher.Add(sess.SocketDir()); werr != nil {
			logger.Debug("socket dir not watchable, polling only", "dir", sess.SocketDir(), "error", werr)
			_ = watcher.Close()
		} else {
			m.watcher = watcher
		}
	} else {
		logger.Debug("fsnotify unavailable, polling only", "error", err)
	}

	return m
}

// Run executes the watch view until the operator quits.
func Run(cfg *config.Config, sys *service.Systemctl, sess display.Session, logger *logging.Logger) error {
	m := New(cfg, sys, sess, logger)
	defer m.close()

	_, err := tea.NewProgram(m).Run()
	return err
}

func (m Model) close() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

// Init starts the spinner, the first poll, and the fsnotify pump.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.refresh(), tick()}
	if m.watcher != nil {
		cmds = append(cmds, m.nextFSEvent())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case snapshotMsg:
		m.snap = snapshot(msg)
		m.haveSnap = true
		m.err = nil
		return m, nil

	case fsEventMsg:
		// Any change under the socket directory is worth a refresh
		return m, tea.Batch(m.refresh(), m.nextFSEvent())

	case watchErrMsg:
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refresh collects a snapshot off the UI goroutine.
func (m Model) refresh() tea.Cmd {
	cfg, sys, sess := m.cfg, m.sys, m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
		defer cancel()

		snap := snapshot{Taken: time.Now()}
		if sys != nil {
			snap.Units = sys.Status(ctx, service.Units(cfg)...)
		}
		snap.SocketPresent = fileExists(sess.SocketEntry())
		snap.LockPresent = fileExists(sess.LockFile())
		return snapshotMsg(snap)
	}
}

func (m Model) nextFSEvent() tea.Cmd {
	watcher := m.watcher
	return func() tea.Msg {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return watchErrMsg{err: nil}
			}
			return fsEventMsg(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return watchErrMsg{err: nil}
			}
			return watchErrMsg{err: err}
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
