package watch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vdesk-project/vdesk/internal/service"
	"github.com/vdesk-project/vdesk/internal/util"
)

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	activeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	inactiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	unknownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// View renders the current snapshot.
func (m Model) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n\n",
		watchTitleStyle.Render("vdesk status"),
		m.session.Token())

	if !m.haveSnap {
		fmt.Fprintf(&b, "%s collecting state...\n", m.spinner.View())
		return b.String()
	}

	b.WriteString("Units\n")
	for _, st := range m.snap.Units {
		line := fmt.Sprintf("  %-24s %s%s", st.Unit, stateBadge(st.State), enabledSuffix(st.Enabled))
		if m.width > 0 {
			line = util.TruncateANSI(line, m.width)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\nDisplay artifacts\n")
	fmt.Fprintf(&b, "  %-24s %s\n", "X11 socket", presenceBadge(m.snap.SocketPresent))
	fmt.Fprintf(&b, "  %-24s %s\n", "lock file", presenceBadge(m.snap.LockPresent))

	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", errStyle.Render("watch error: "+m.err.Error()))
	}

	fmt.Fprintf(&b, "\n%s\n", helpStyle.Render(fmt.Sprintf(
		"updated %s  •  r refresh  •  q quit", m.snap.Taken.Format("15:04:05"))))
	return b.String()
}

func stateBadge(state service.ActiveState) string {
	switch state {
	case service.StateActive:
		return activeStyle.Render("active")
	case service.StateInactive:
		return inactiveStyle.Render("inactive")
	case service.StateFailed:
		return failedStyle.Render("failed")
	default:
		return unknownStyle.Render("unknown")
	}
}

func enabledSuffix(enabled bool) string {
	if enabled {
		return inactiveStyle.Render(" (enabled)")
	}
	return ""
}

func presenceBadge(present bool) string {
	if present {
		return activeStyle.Render("present")
	}
	return inactiveStyle.Render("absent")
}
