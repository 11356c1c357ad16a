package config

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strings"

	"github.com/vdesk-project/vdesk/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "display.number")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// geometryRegex validates WIDTHxHEIGHT resolution strings
var geometryRegex = regexp.MustCompile(`^[1-9][0-9]*x[1-9][0-9]*$`)

// maxDisplayNumber bounds display numbers so the derived VNC port stays
// inside the conventional 59xx range.
const maxDisplayNumber = 99

// ValidColorDepths returns the list of valid color depths
func ValidColorDepths() []int {
	return []int{8, 16, 24, 32}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDisplay()...)
	errors = append(errors, c.validateVNC()...)
	errors = append(errors, c.validateNoVNC()...)
	errors = append(errors, c.validateFirewall()...)
	errors = append(errors, c.validateService()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateDisplay validates the DisplayConfig
func (c *Config) validateDisplay() []ValidationError {
	var errors []ValidationError

	if c.Display.Number < 1 || c.Display.Number > maxDisplayNumber {
		errors = append(errors, ValidationError{
			Field:   "display.number",
			Value:   c.Display.Number,
			Message: fmt.Sprintf("must be between 1 and %d", maxDisplayNumber),
		})
	}

	if !geometryRegex.MatchString(c.Display.Geometry) {
		errors = append(errors, ValidationError{
			Field:   "display.geometry",
			Value:   c.Display.Geometry,
			Message: "must be WIDTHxHEIGHT, e.g. 1280x800",
		})
	}

	if !slices.Contains(ValidColorDepths(), c.Display.Depth) {
		errors = append(errors, ValidationError{
			Field:   "display.depth",
			Value:   c.Display.Depth,
			Message: fmt.Sprintf("must be one of %v", ValidColorDepths()),
		})
	}

	return errors
}

// validateVNC validates the VNCConfig
func (c *Config) validateVNC() []ValidationError {
	var errors []ValidationError

	if c.VNC.PortBase < 1 || c.VNC.PortBase > 65535-maxDisplayNumber {
		errors = append(errors, ValidationError{
			Field:   "vnc.port_base",
			Value:   c.VNC.PortBase,
			Message: fmt.Sprintf("must be between 1 and %d", 65535-maxDisplayNumber),
		})
	}

	return errors
}

// validateNoVNC validates the NoVNCConfig
func (c *Config) validateNoVNC() []ValidationError {
	var errors []ValidationError

	if !c.NoVNC.Enabled {
		return nil
	}

	if c.NoVNC.Port < 1 || c.NoVNC.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "novnc.port",
			Value:   c.NoVNC.Port,
			Message: "must be between 1 and 65535",
		})
	}

	if c.NoVNC.Port == c.VNCPort() {
		errors = append(errors, ValidationError{
			Field:   "novnc.port",
			Value:   c.NoVNC.Port,
			Message: "must not collide with the VNC port",
		})
	}

	if c.NoVNC.Listen != "" && net.ParseIP(c.NoVNC.Listen) == nil {
		errors = append(errors, ValidationError{
			Field:   "novnc.listen",
			Value:   c.NoVNC.Listen,
			Message: "must be a valid IP address",
		})
	}

	return errors
}

// validateFirewall validates the FirewallConfig
func (c *Config) validateFirewall() []ValidationError {
	var errors []ValidationError

	for _, cidr := range c.Firewall.AllowFrom {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, ValidationError{
				Field:   "firewall.allow_from",
				Value:   cidr,
				Message: "must be a valid CIDR, e.g. 10.0.0.0/8",
			})
		}
	}

	return errors
}

// validateService validates the ServiceConfig
func (c *Config) validateService() []ValidationError {
	var errors []ValidationError

	if c.Service.SettleSeconds < 0 || c.Service.SettleSeconds > 30 {
		errors = append(errors, ValidationError{
			Field:   "service.settle_seconds",
			Value:   c.Service.SettleSeconds,
			Message: "must be between 0 and 30",
		})
	}

	if c.Service.UnitDir == "" {
		errors = append(errors, ValidationError{
			Field:   "service.unit_dir",
			Value:   c.Service.UnitDir,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of %v", logging.ValidLevels()),
		})
	}

	return errors
}
