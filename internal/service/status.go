package service

import (
	"context"

	"github.com/vdesk-project/vdesk/internal/config"
)

// UnitStatus is the aggregated state of one vdesk unit.
type UnitStatus struct {
	Unit    string
	State   ActiveState
	Enabled bool
}

// Units returns the instantiated unit names for the given config. The
// noVNC unit is listed only when the bridge is enabled.
func Units(cfg *config.Config) []string {
	units := []string{VNCUnitName(cfg.Display.Number)}
	if cfg.NoVNC.Enabled {
		units = append(units, NoVNCUnitFile)
	}
	return units
}

// Status collects the active and enabled state of each unit. Units
// systemd does not know about report StateUnknown rather than an error,
// so a fresh host shows a clean "not installed" status.
func (s *Systemctl) Status(ctx context.Context, units ...string) []UnitStatus {
	statuses := make([]UnitStatus, 0, len(units))
	for _, unit := range units {
		state, err := s.IsActive(ctx, unit)
		if err != nil {
			state = StateUnknown
		}
		enabled, _ := s.IsEnabled(ctx, unit)
		statuses = append(statuses, UnitStatus{Unit: unit, State: state, Enabled: enabled})
	}
	return statuses
}
