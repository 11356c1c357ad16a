package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/display"
	"github.com/vdesk-project/vdesk/internal/errors"
)

var (
	resetDisplay int
	resetHome    string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Force-clean a display session",
	Long: `Reset kills any display server still holding the given display number
and removes its leftover lock files, socket entries, PID markers, and
per-session logs. A display with nothing to clean resets successfully.

This runs as ExecStartPre of the VNC unit, so a crashed session never
blocks the next start.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().IntVarP(&resetDisplay, "display", "d", 0, "display number to reset (default from config)")
	resetCmd.Flags().StringVar(&resetHome, "home", "", "home directory holding ~/.vnc state (default from config)")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := newLogger(cfg)
	defer logger.Close()

	number := resetDisplay
	if number == 0 {
		number = cfg.Display.Number
	}
	home := resetHome
	if home == "" {
		home = cfg.VNC.ResolveHome()
	}

	sess, err := display.NewSession(number, cfg.VNC.User, home)
	if err != nil {
		return err
	}

	manager := display.NewManager(logger,
		display.WithSettleInterval(cfg.Service.SettleInterval()))

	if err := manager.Reset(cmd.Context(), sess); err != nil {
		if errors.IsPermission(err) {
			return errors.Wrap(err, "partial cleanup, rerun with sufficient privileges")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Display :%d reset\n", number)
	return nil
}
