package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/instructions"
	"github.com/vdesk-project/vdesk/internal/netinfo"
)

var instructionsCmd = &cobra.Command{
	Use:   "instructions",
	Short: "Print connection instructions",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		instructions.Render(cmd.OutOrStdout(), instructions.FromConfig(cfg, netinfo.PrimaryIP()))
	},
}

func init() {
	rootCmd.AddCommand(instructionsCmd)
}
