package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/vncpasswd"
)

var passwdFile string

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Set or change the VNC password",
	RunE:  runPasswd,
}

func init() {
	passwdCmd.Flags().StringVar(&passwdFile, "file", "", "password file (default from config)")
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := newLogger(cfg)
	defer logger.Close()

	file := passwdFile
	if file == "" {
		file = cfg.VNC.ResolvePasswordFile()
	}

	password, err := promptPassword(cmd)
	if err != nil {
		return err
	}

	if err := vncpasswd.NewSetter(logger).Set(cmd.Context(), file, password); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Password written to %s\n", file)
	fmt.Fprintln(cmd.OutOrStdout(), "Restart the VNC service to apply: vdesk service restart")
	return nil
}
