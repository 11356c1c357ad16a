// Package util holds small rendering helpers shared by the status views.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI shortens s to maxWidth visual columns, appending "..."
// when anything was cut. Width is measured the way a terminal renders
// it: escape sequences cost nothing and wide runes cost two columns,
// so styled unit rows keep their state badges intact after truncation.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}
