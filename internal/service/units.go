// Package service renders and manages the systemd units that run the
// remote-desktop stack: a templated per-display VNC unit and a single
// noVNC bridge unit. The VNC unit resets the display session before
// every start so stale locks from an unclean shutdown never block it.
package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/errors"
)

// Unit file names. The VNC unit is a systemd template unit; instances
// are named vdesk-vnc@<display>.service.
const (
	VNCUnitFile   = "vdesk-vnc@.service"
	NoVNCUnitFile = "vdesk-novnc.service"
)

// VNCUnitName returns the instantiated VNC unit name for a display.
func VNCUnitName(display int) string {
	return fmt.Sprintf("vdesk-vnc@%d.service", display)
}

var vncUnitTemplate = template.Must(template.New(VNCUnitFile).Parse(`[Unit]
Description=vdesk VNC server on display :%i
After=syslog.target network.target

[Service]
Type=forking
User={{.User}}
Environment=HOME={{.Home}}
ExecStartPre={{.Binary}} reset --display %i
ExecStart=/usr/bin/vncserver :%i -geometry {{.Geometry}} -depth {{.Depth}} -localhost no
ExecStop=/usr/bin/vncserver -kill :%i
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`))

var novncUnitTemplate = template.Must(template.New(NoVNCUnitFile).Parse(`[Unit]
Description=vdesk noVNC web bridge
After=syslog.target network.target vdesk-vnc@{{.Display}}.service
Wants=vdesk-vnc@{{.Display}}.service

[Service]
Type=simple
ExecStart=/usr/bin/websockify --web {{.WebRoot}} {{.Listen}}:{{.WebPort}} localhost:{{.VNCPort}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`))

// vncUnitData feeds the VNC unit template.
type vncUnitData struct {
	User     string
	Home     string
	Binary   string
	Geometry string
	Depth    int
}

// novncUnitData feeds the noVNC unit template.
type novncUnitData struct {
	Display int
	WebRoot string
	Listen  string
	WebPort int
	VNCPort int
}

// RenderVNCUnit renders the templated VNC unit for the given config.
func RenderVNCUnit(cfg *config.Config) ([]byte, error) {
	user := cfg.VNC.User
	if user == "" {
		user = "root"
	}

	var buf bytes.Buffer
	err := vncUnitTemplate.Execute(&buf, vncUnitData{
		User:     user,
		Home:     cfg.VNC.ResolveHome(),
		Binary:   vdeskBinary(),
		Geometry: cfg.Display.Geometry,
		Depth:    cfg.Display.Depth,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render VNC unit")
	}
	return buf.Bytes(), nil
}

// RenderNoVNCUnit renders the noVNC bridge unit for the given config.
func RenderNoVNCUnit(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	err := novncUnitTemplate.Execute(&buf, novncUnitData{
		Display: cfg.Display.Number,
		WebRoot: cfg.NoVNC.WebRoot,
		Listen:  cfg.NoVNC.Listen,
		WebPort: cfg.NoVNC.Port,
		VNCPort: cfg.VNCPort(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render noVNC unit")
	}
	return buf.Bytes(), nil
}

// WriteUnits renders the unit files into cfg.Service.UnitDir. The noVNC
// unit is written only when the bridge is enabled. Returns the paths of
// the files written.
func WriteUnits(cfg *config.Config) ([]string, error) {
	var written []string

	vnc, err := RenderVNCUnit(cfg)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.Service.UnitDir, VNCUnitFile)
	if err := writeUnitFile(path, vnc); err != nil {
		return nil, err
	}
	written = append(written, path)

	if cfg.NoVNC.Enabled {
		novnc, err := RenderNoVNCUnit(cfg)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(cfg.Service.UnitDir, NoVNCUnitFile)
		if err := writeUnitFile(path, novnc); err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	return written, nil
}

// RemoveUnits deletes the unit files from cfg.Service.UnitDir. Missing
// files are not an error. Returns the paths of the files removed.
func RemoveUnits(cfg *config.Config) ([]string, error) {
	var removed []string
	for _, name := range []string{VNCUnitFile, NoVNCUnitFile} {
		path := filepath.Join(cfg.Service.UnitDir, name)
		err := os.Remove(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, errors.Wrapf(err, "failed to remove unit %s", name)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

func writeUnitFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create unit directory")
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return errors.Wrapf(err, "failed to write unit file %s", filepath.Base(path))
	}
	return nil
}

// vdeskBinary resolves the path systemd should use for the pre-start
// reset hook. Falls back to a PATH lookup name when the executable path
// cannot be resolved.
func vdeskBinary() string {
	path, err := os.Executable()
	if err != nil {
		return "/usr/local/bin/vdesk"
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
