package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/service"
	"github.com/vdesk-project/vdesk/internal/watch"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the desktop stack",
	Long: `Display the systemd unit states and display artifacts for the
configured session. With --watch, keep the view open and refresh it
live as the session changes.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "refresh continuously")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := newLogger(cfg)
	defer logger.Close()

	sess, err := sessionFromConfig(cfg)
	if err != nil {
		return err
	}

	sys, err := service.NewSystemctl(logger)
	if err != nil {
		return err
	}

	if statusWatch {
		return watch.Run(cfg, sys, sess, logger)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Display %s\n\n", sess.Token())

	for _, st := range sys.Status(cmd.Context(), service.Units(cfg)...) {
		enabled := ""
		if st.Enabled {
			enabled = " (enabled)"
		}
		fmt.Fprintf(out, "  %-24s %s%s\n", st.Unit, st.State, enabled)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-24s %s\n", "X11 socket", presence(sess.SocketEntry()))
	fmt.Fprintf(out, "  %-24s %s\n", "lock file", presence(sess.LockFile()))
	return nil
}

func presence(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "present"
	}
	return "absent"
}
