package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vdesk-project/vdesk/internal/cmd/service"
	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/display"
	"github.com/vdesk-project/vdesk/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "vdesk",
	Short: "Remote desktop stack installer and manager",
	Long: `Vdesk installs and manages a browser-accessible remote desktop:
a VNC server running an XFCE session, bridged to the web through
noVNC/websockify, wired into systemd and ufw.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is /etc/vdesk/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	service.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("/etc/vdesk")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VDESK")
	// Replace dots with underscores for nested keys in env vars
	// e.g., VDESK_DISPLAY_NUMBER for display.number
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger builds the shared logger from the logging config. Errors
// fall back to a stderr logger rather than aborting the command.
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

// sessionFromConfig builds the display session the config describes.
func sessionFromConfig(cfg *config.Config) (display.Session, error) {
	return display.NewSession(cfg.Display.Number, cfg.VNC.User, cfg.VNC.ResolveHome())
}
