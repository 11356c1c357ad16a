package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/errors"
	"github.com/vdesk-project/vdesk/internal/firewall"
	"github.com/vdesk-project/vdesk/internal/instructions"
	"github.com/vdesk-project/vdesk/internal/netinfo"
	"github.com/vdesk-project/vdesk/internal/pkgmgr"
	"github.com/vdesk-project/vdesk/internal/runlock"
	"github.com/vdesk-project/vdesk/internal/service"
	"github.com/vdesk-project/vdesk/internal/vncpasswd"
)

var (
	installDryRun   bool
	installSkipPkgs bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the remote desktop stack",
	Long: `Install provisions the full stack on this host: installs the VNC
server, XFCE, and noVNC packages, sets the VNC password, writes and
starts the systemd units, opens the firewall ports, and prints
connection instructions.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "log actions without executing them")
	installCmd.Flags().BoolVar(&installSkipPkgs, "skip-packages", false, "skip package installation (already installed)")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer logger.Close()

	lock, err := runlock.Acquire(runlock.DefaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// Packages
	if !installSkipPkgs {
		installer, err := pkgmgr.NewInstaller(logger, pkgmgr.WithDryRun(installDryRun))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Installing packages (%s)...\n", installer.Manager())
		if err := installer.Refresh(ctx); err != nil {
			logger.Warn("package index refresh failed, continuing", "error", err)
		}
		if err := installer.Install(ctx, installer.Packages(cfg.NoVNC.Enabled)...); err != nil {
			return err
		}
	}

	// VNC password
	passwordFile := cfg.VNC.ResolvePasswordFile()
	if _, err := os.Stat(passwordFile); err != nil && !installDryRun {
		fmt.Fprintln(out, "Setting VNC password...")
		password, err := promptPassword(cmd)
		if err != nil {
			return err
		}
		if err := vncpasswd.NewSetter(logger).Set(ctx, passwordFile, password); err != nil {
			return err
		}
	}

	// systemd units
	fmt.Fprintln(out, "Writing systemd units...")
	if !installDryRun {
		if _, err := service.WriteUnits(cfg); err != nil {
			return err
		}
	}
	sys, err := service.NewSystemctl(logger, service.WithDryRun(installDryRun))
	if err != nil {
		return err
	}
	if err := sys.DaemonReload(ctx); err != nil {
		return err
	}
	for _, unit := range service.Units(cfg) {
		if err := sys.Enable(ctx, unit); err != nil {
			return err
		}
		if err := sys.Start(ctx, unit); err != nil {
			return err
		}
	}

	// Firewall
	if cfg.Firewall.Enabled {
		fw, err := firewall.New(logger, firewall.WithDryRun(installDryRun))
		if err != nil {
			if errors.Is(err, firewall.ErrUfwNotFound) {
				fmt.Fprintln(out, "Warning: ufw not found, configure your firewall manually")
			} else {
				return err
			}
		} else if err := fw.Allow(ctx, cfg); err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	instructions.Render(out, instructions.FromConfig(cfg, netinfo.PrimaryIP()))
	return nil
}

// promptPassword reads and confirms a password without echo.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, set the password with `vdesk passwd`")
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Password (6-8 characters): ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if err := vncpasswd.Validate(string(first)); err != nil {
		return "", err
	}

	fmt.Fprint(out, "Verify: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
