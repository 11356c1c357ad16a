// Package config defines the vdesk configuration, its defaults, and
// validation. Configuration is loaded through viper from
// /etc/vdesk/config.yaml (or a user config directory), environment
// variables prefixed VDESK_, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete vdesk configuration
type Config struct {
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	VNC      VNCConfig      `mapstructure:"vnc" yaml:"vnc"`
	NoVNC    NoVNCConfig    `mapstructure:"novnc" yaml:"novnc"`
	Desktop  DesktopConfig  `mapstructure:"desktop" yaml:"desktop"`
	Firewall FirewallConfig `mapstructure:"firewall" yaml:"firewall"`
	Service  ServiceConfig  `mapstructure:"service" yaml:"service"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// DisplayConfig identifies the display session the stack runs on
type DisplayConfig struct {
	// Number is the display number to provision (default: 1)
	Number int `mapstructure:"number" yaml:"number"`
	// Geometry is the desktop resolution as WIDTHxHEIGHT (default: "1280x800")
	Geometry string `mapstructure:"geometry" yaml:"geometry"`
	// Depth is the color depth in bits (default: 24)
	Depth int `mapstructure:"depth" yaml:"depth"`
}

// VNCConfig controls the VNC display server
type VNCConfig struct {
	// User is the account the desktop session runs as (default: current user)
	User string `mapstructure:"user" yaml:"user"`
	// Home is the user's home directory; empty means resolve from the OS
	Home string `mapstructure:"home" yaml:"home"`
	// PortBase is the base TCP port; display N listens on PortBase+N (default: 5900)
	PortBase int `mapstructure:"port_base" yaml:"port_base"`
	// PasswordFile is where the VNC password lives; empty means ~/.vnc/passwd
	PasswordFile string `mapstructure:"password_file" yaml:"password_file"`
}

// NoVNCConfig controls the browser-based VNC bridge
type NoVNCConfig struct {
	// Enabled controls whether the noVNC bridge is installed and wired (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Port is the HTTP port websockify listens on (default: 6080)
	Port int `mapstructure:"port" yaml:"port"`
	// WebRoot is the directory serving the noVNC client (default: /usr/share/novnc)
	WebRoot string `mapstructure:"web_root" yaml:"web_root"`
	// Listen is the bind address for the bridge (default: "0.0.0.0")
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// DesktopConfig controls the desktop environment
type DesktopConfig struct {
	// SessionCommand launches the desktop inside the VNC session (default: "startxfce4")
	SessionCommand string `mapstructure:"session_command" yaml:"session_command"`
}

// FirewallConfig controls ufw rule management
type FirewallConfig struct {
	// Enabled controls whether install configures ufw rules (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// AllowFrom restricts the rules to source CIDRs; empty allows any source
	AllowFrom []string `mapstructure:"allow_from" yaml:"allow_from"`
}

// ServiceConfig controls systemd unit management
type ServiceConfig struct {
	// UnitDir is where unit files are written (default: /etc/systemd/system)
	UnitDir string `mapstructure:"unit_dir" yaml:"unit_dir"`
	// SettleSeconds bounds the post-kill settle wait in the reset hook (default: 2)
	SettleSeconds int `mapstructure:"settle_seconds" yaml:"settle_seconds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the log directory; empty logs to stderr (default: /var/log/vdesk)
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// VNCPort returns the TCP port the VNC server listens on for the
// configured display (PortBase + display number).
func (c *Config) VNCPort() int {
	return c.VNC.PortBase + c.Display.Number
}

// SettleInterval returns the settle wait bound as a time.Duration.
func (c *ServiceConfig) SettleInterval() time.Duration {
	return time.Duration(c.SettleSeconds) * time.Second
}

// ResolvePasswordFile returns the effective VNC password file path.
func (c *VNCConfig) ResolvePasswordFile() string {
	if c.PasswordFile != "" {
		return c.PasswordFile
	}
	return filepath.Join(c.ResolveHome(), ".vnc", "passwd")
}

// ResolveHome returns the effective home directory for the VNC user,
// falling back to the current user's home when unset.
func (c *VNCConfig) ResolveHome() string {
	if c.Home != "" {
		return c.Home
	}
	if c.User != "" {
		// Conventional location; user database lookups need cgo or
		// /etc/passwd parsing, and install runs confirm the path exists.
		return filepath.Join("/home", c.User)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/root"
	}
	return home
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Number:   1,
			Geometry: "1280x800",
			Depth:    24,
		},
		VNC: VNCConfig{
			User:         "",
			Home:         "",
			PortBase:     5900,
			PasswordFile: "",
		},
		NoVNC: NoVNCConfig{
			Enabled: true,
			Port:    6080,
			WebRoot: "/usr/share/novnc",
			Listen:  "0.0.0.0",
		},
		Desktop: DesktopConfig{
			SessionCommand: "startxfce4",
		},
		Firewall: FirewallConfig{
			Enabled:   true,
			AllowFrom: []string{},
		},
		Service: ServiceConfig{
			UnitDir:       "/etc/systemd/system",
			SettleSeconds: 2,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "/var/log/vdesk",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Display defaults
	viper.SetDefault("display.number", defaults.Display.Number)
	viper.SetDefault("display.geometry", defaults.Display.Geometry)
	viper.SetDefault("display.depth", defaults.Display.Depth)

	// VNC defaults
	viper.SetDefault("vnc.user", defaults.VNC.User)
	viper.SetDefault("vnc.home", defaults.VNC.Home)
	viper.SetDefault("vnc.port_base", defaults.VNC.PortBase)
	viper.SetDefault("vnc.password_file", defaults.VNC.PasswordFile)

	// NoVNC defaults
	viper.SetDefault("novnc.enabled", defaults.NoVNC.Enabled)
	viper.SetDefault("novnc.port", defaults.NoVNC.Port)
	viper.SetDefault("novnc.web_root", defaults.NoVNC.WebRoot)
	viper.SetDefault("novnc.listen", defaults.NoVNC.Listen)

	// Desktop defaults
	viper.SetDefault("desktop.session_command", defaults.Desktop.SessionCommand)

	// Firewall defaults
	viper.SetDefault("firewall.enabled", defaults.Firewall.Enabled)
	viper.SetDefault("firewall.allow_from", defaults.Firewall.AllowFrom)

	// Service defaults
	viper.SetDefault("service.unit_dir", defaults.Service.UnitDir)
	viper.SetDefault("service.settle_seconds", defaults.Service.SettleSeconds)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the config directory. Root uses the
// system location; other users fall back to XDG conventions.
func ConfigDir() string {
	if os.Geteuid() == 0 {
		return "/etc/vdesk"
	}
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vdesk")
	}
	// Fall back to ~/.config/vdesk
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vdesk"
	}
	return filepath.Join(home, ".config", "vdesk")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Write serializes the configuration as YAML to the given path, creating
// parent directories as needed. Used by `vdesk config init`.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
