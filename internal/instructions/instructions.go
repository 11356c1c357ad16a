// Package instructions renders the post-install connection summary:
// noVNC URL, direct VNC endpoint, SSH tunnel command, and the systemctl
// commands for managing the stack. Output is lipgloss-styled on a TTY
// and plain text otherwise.
package instructions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/service"
)

// Info carries everything the summary needs.
type Info struct {
	Host    string // primary IP or hostname to connect to
	Display int
	VNCPort int
	WebPort int // 0 when the noVNC bridge is disabled
	User    string
}

// FromConfig builds an Info from a config and a resolved host address.
func FromConfig(cfg *config.Config, host string) Info {
	info := Info{
		Host:    host,
		Display: cfg.Display.Number,
		VNCPort: cfg.VNCPort(),
		User:    cfg.VNC.User,
	}
	if cfg.NoVNC.Enabled {
		info.WebPort = cfg.NoVNC.Port
	}
	return info
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	cmdStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("222"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(1, 2)
)

// Render writes the connection summary to w. Styling is applied only
// when w is a terminal.
func Render(w io.Writer, info Info) {
	if isTerminal(w) {
		fmt.Fprintln(w, boxStyle.Render(styled(info)))
		return
	}
	fmt.Fprint(w, plain(info))
}

func styled(info Info) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("vdesk is ready"))
	b.WriteString("\n\n")

	if info.WebPort > 0 {
		b.WriteString(sectionStyle.Render("Browser"))
		b.WriteString("\n")
		b.WriteString(line("noVNC", fmt.Sprintf("http://%s:%d/vnc.html", info.Host, info.WebPort)))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("VNC client"))
	b.WriteString("\n")
	b.WriteString(line("Endpoint", fmt.Sprintf("%s:%d", info.Host, info.VNCPort)))
	b.WriteString(line("Display", fmt.Sprintf(":%d", info.Display)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("SSH tunnel (recommended over untrusted networks)"))
	b.WriteString("\n")
	b.WriteString(cmdStyle.Render("  " + tunnelCommand(info)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Service management"))
	b.WriteString("\n")
	for _, cmd := range serviceCommands(info) {
		b.WriteString(cmdStyle.Render("  " + cmd))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func plain(info Info) string {
	var b strings.Builder

	b.WriteString("vdesk is ready\n\n")
	if info.WebPort > 0 {
		fmt.Fprintf(&b, "Browser:    http://%s:%d/vnc.html\n", info.Host, info.WebPort)
	}
	fmt.Fprintf(&b, "VNC client: %s:%d (display :%d)\n", info.Host, info.VNCPort, info.Display)
	fmt.Fprintf(&b, "SSH tunnel: %s\n", tunnelCommand(info))
	b.WriteString("\nService management:\n")
	for _, cmd := range serviceCommands(info) {
		fmt.Fprintf(&b, "  %s\n", cmd)
	}

	return b.String()
}

func line(label, value string) string {
	return fmt.Sprintf("  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func tunnelCommand(info Info) string {
	user := info.User
	if user == "" {
		user = "USER"
	}
	return fmt.Sprintf("ssh -L %d:localhost:%d %s@%s", info.VNCPort, info.VNCPort, user, info.Host)
}

func serviceCommands(info Info) []string {
	unit := service.VNCUnitName(info.Display)
	cmds := []string{
		fmt.Sprintf("systemctl status %s", unit),
		fmt.Sprintf("systemctl restart %s", unit),
	}
	if info.WebPort > 0 {
		cmds = append(cmds, fmt.Sprintf("systemctl status %s", service.NoVNCUnitFile))
	}
	return cmds
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
