package service

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/logging"
	"github.com/vdesk-project/vdesk/internal/service"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the vdesk systemd units",
	}

	cmd.AddCommand(newActionCmd("start", "Start the units", start))
	cmd.AddCommand(newActionCmd("stop", "Stop the units", stop))
	cmd.AddCommand(newActionCmd("restart", "Restart the units", restart))
	cmd.AddCommand(newActionCmd("enable", "Enable the units at boot", enable))
	cmd.AddCommand(newActionCmd("disable", "Disable the units at boot", disable))
	return cmd
}

// action applies one systemctl verb to one unit.
type action func(ctx context.Context, sys *service.Systemctl, unit string) error

func newActionCmd(use, short string, fn action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			logger := newLogger(cfg)
			defer logger.Close()

			sys, err := service.NewSystemctl(logger)
			if err != nil {
				return err
			}

			for _, unit := range service.Units(cfg) {
				if err := fn(cmd.Context(), sys, unit); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", use, unit)
			}
			return nil
		},
	}
}

func start(ctx context.Context, sys *service.Systemctl, unit string) error {
	return sys.Start(ctx, unit)
}

func stop(ctx context.Context, sys *service.Systemctl, unit string) error {
	return sys.Stop(ctx, unit)
}

func restart(ctx context.Context, sys *service.Systemctl, unit string) error {
	if err := sys.Stop(ctx, unit); err != nil {
		return err
	}
	return sys.Start(ctx, unit)
}

func enable(ctx context.Context, sys *service.Systemctl, unit string) error {
	return sys.Enable(ctx, unit)
}

func disable(ctx context.Context, sys *service.Systemctl, unit string) error {
	return sys.Disable(ctx, unit)
}

// newLogger mirrors the root command's logger construction for commands
// registered from this subpackage.
func newLogger(cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		logger, _ = logging.NewLogger("", cfg.Logging.Level)
	}
	return logger
}
