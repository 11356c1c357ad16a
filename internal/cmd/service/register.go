// Package service provides the `vdesk service` command group for
// managing the stack's systemd units.
package service

import "github.com/spf13/cobra"

// Register adds all service-related commands to the given parent command.
// This is the main entry point for integrating the service subpackage
// with the root command.
func Register(parent *cobra.Command) {
	parent.AddCommand(newServiceCmd())
}
