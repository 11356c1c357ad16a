package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/firewall"
)

var firewallCmd = &cobra.Command{
	Use:   "firewall",
	Short: "Manage ufw rules for the desktop ports",
}

var firewallAllowCmd = &cobra.Command{
	Use:   "allow",
	Short: "Open the VNC and noVNC ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirewall(cmd, true)
	},
}

var firewallDenyCmd = &cobra.Command{
	Use:   "deny",
	Short: "Remove the VNC and noVNC port rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirewall(cmd, false)
	},
}

func init() {
	firewallCmd.AddCommand(firewallAllowCmd)
	firewallCmd.AddCommand(firewallDenyCmd)
	rootCmd.AddCommand(firewallCmd)
}

func runFirewall(cmd *cobra.Command, allow bool) error {
	cfg := config.Get()
	logger := newLogger(cfg)
	defer logger.Close()

	fw, err := firewall.New(logger)
	if err != nil {
		return err
	}

	if allow {
		if err := fw.Allow(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Firewall rules added")
		return nil
	}

	if err := fw.Deny(cmd.Context(), cfg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Firewall rules removed")
	return nil
}
