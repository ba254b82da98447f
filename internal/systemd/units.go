// Package systemd renders the service units for the alarm daemon and the web
// interface and drives systemctl through an injectable command runner.
package systemd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"sunrised/internal/fsutil"
)

// UnitDir is where the installer places unit files.
const UnitDir = "/etc/systemd/system"

// The two services the installer manages.
const (
	DaemonUnit = "sunrised.service"
	WebUnit    = "sunrised-web.service"
)

// UnitNames lists both managed units.
func UnitNames() []string {
	return []string{DaemonUnit, WebUnit}
}

// Unit describes one systemd service.
type Unit struct {
	Name        string
	Description string
	User        string
	ExecStart   string
	After       []string
	Environment []string
}

var unitTmpl = template.Must(template.New("unit").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`[Unit]
Description={{.Description}}
{{- if .After}}
After={{join .After " "}}
{{- end}}

[Service]
Type=simple
{{- if .User}}
User={{.User}}
{{- end}}
ExecStart={{.ExecStart}}
Restart=always
RestartSec=3
{{- range .Environment}}
Environment={{.}}
{{- end}}

[Install]
WantedBy=multi-user.target
`))

// Units returns the two services pointing at the given binary. env lines are
// attached to both so the daemon and the web interface agree on data paths.
// Both run as root: the WS281x driver needs /dev/mem and the web interface
// binds a privileged-adjacent port on stock Raspberry Pi OS setups.
func Units(binPath string, env []string) []Unit {
	return []Unit{
		{
			Name:        DaemonUnit,
			Description: "Sunrise alarm daemon",
			User:        "root",
			ExecStart:   binPath + " alarm",
			After:       []string{"network.target"},
			Environment: env,
		},
		{
			Name:        WebUnit,
			Description: "Sunrise alarm web interface",
			User:        "root",
			ExecStart:   binPath + " web",
			After:       []string{"network.target"},
			Environment: env,
		},
	}
}

// Render produces the unit file contents.
func Render(u Unit) (string, error) {
	var buf bytes.Buffer
	if err := unitTmpl.Execute(&buf, u); err != nil {
		return "", fmt.Errorf("render unit %s: %w", u.Name, err)
	}
	return buf.String(), nil
}

// WriteUnit renders u into dir atomically and returns the written path.
func WriteUnit(dir string, u Unit) (string, error) {
	content, err := Render(u)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, u.Name)
	if err := fsutil.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write unit %s: %w", u.Name, err)
	}
	return path, nil
}
