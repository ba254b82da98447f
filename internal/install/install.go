// Package install sets up and tears down a deployment: the data directory,
// the seed state file, the settings file and the two systemd services.
package install

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"sunrised/internal/alarm"
	"sunrised/internal/exec"
	"sunrised/internal/history"
	"sunrised/internal/settings"
	"sunrised/internal/state"
	"sunrised/internal/systemd"
)

// Options locates everything the installer touches.
type Options struct {
	BinPath      string // binary the unit files point at
	UnitDir      string
	DataDir      string
	StatePath    string
	SettingsPath string
	HistoryDB    string
	NoStart      bool // enable units without starting them
}

type Installer struct {
	mgr    *systemd.Manager
	runner exec.CommandRunner
	opts   Options
	logger *zap.Logger
}

func New(mgr *systemd.Manager, runner exec.CommandRunner, opts Options, logger *zap.Logger) *Installer {
	return &Installer{mgr: mgr, runner: runner, opts: opts, logger: logger}
}

func (i *Installer) unitEnv() []string {
	return []string{
		"ALARM_SETTINGS_PATH=" + i.opts.SettingsPath,
		"ALARM_STATE_PATH=" + i.opts.StatePath,
		"ALARM_HISTORY_DB=" + i.opts.HistoryDB,
	}
}

// Seed creates the data directory and the state and settings files. Existing
// files are left alone, so the alarm time survives reinstalls.
func (i *Installer) Seed() error {
	if err := os.MkdirAll(i.opts.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if _, err := os.Stat(i.opts.StatePath); errors.Is(err, os.ErrNotExist) {
		if err := state.Seed(i.opts.StatePath); err != nil {
			return fmt.Errorf("seed state file: %w", err)
		}
		i.logger.Info("seeded state file", zap.String("path", i.opts.StatePath))
	}

	if _, err := os.Stat(i.opts.SettingsPath); errors.Is(err, os.ErrNotExist) {
		store := settings.NewFileStore(i.opts.SettingsPath, i.logger)
		if err := store.Save(alarm.Settings{}); err != nil {
			return fmt.Errorf("seed settings file: %w", err)
		}
		i.logger.Info("seeded settings file", zap.String("path", i.opts.SettingsPath))
	}
	return nil
}

// Install seeds the data directory, writes both unit files and enables the
// services.
func (i *Installer) Install(ctx context.Context) error {
	if err := i.Seed(); err != nil {
		return err
	}

	units := systemd.Units(i.opts.BinPath, i.unitEnv())
	for _, u := range units {
		path, err := systemd.WriteUnit(i.opts.UnitDir, u)
		if err != nil {
			return err
		}
		i.logger.Info("wrote unit", zap.String("path", path))
	}

	if err := i.mgr.DaemonReload(ctx); err != nil {
		return err
	}
	for _, u := range units {
		var err error
		if i.opts.NoStart {
			err = i.mgr.Enable(ctx, u.Name)
		} else {
			err = i.mgr.EnableNow(ctx, u.Name)
		}
		if err != nil {
			return err
		}
		i.logger.Info("enabled service", zap.String("unit", u.Name), zap.Bool("started", !i.opts.NoStart))
	}
	return nil
}

// Uninstall stops and disables the services and removes the unit files. Data
// under DataDir is kept unless purge is set, so a reinstall keeps the alarm
// time and history.
func (i *Installer) Uninstall(ctx context.Context, purge bool) error {
	for _, name := range systemd.UnitNames() {
		if err := i.mgr.DisableNow(ctx, name); err != nil {
			// A unit may already be gone; removal below still applies.
			i.logger.Warn("disable service", zap.String("unit", name), zap.Error(err))
		}
	}
	for _, name := range systemd.UnitNames() {
		path := filepath.Join(i.opts.UnitDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove unit %s: %w", name, err)
		}
	}
	if err := i.mgr.DaemonReload(ctx); err != nil {
		return err
	}
	if purge {
		if err := os.RemoveAll(i.opts.DataDir); err != nil {
			return fmt.Errorf("purge data dir: %w", err)
		}
		i.logger.Info("purged data dir", zap.String("path", i.opts.DataDir))
	}
	i.logger.Info("services removed")
	return nil
}

// UnitStatus pairs a unit name with its systemd activation state.
type UnitStatus struct {
	Unit  string
	State string
}

// Status reports the activation state of both services.
func (i *Installer) Status(ctx context.Context) ([]UnitStatus, error) {
	var out []UnitStatus
	for _, name := range systemd.UnitNames() {
		st, err := i.mgr.IsActive(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, UnitStatus{Unit: name, State: st})
	}
	return out, nil
}

// Check is one doctor finding. Required checks decide the doctor's exit code;
// the rest are informational (a dev machine has no /dev/gpiomem).
type Check struct {
	Name     string
	OK       bool
	Required bool
	Detail   string
}

// Failed reports whether any required check did not pass.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Required && !c.OK {
			return true
		}
	}
	return false
}

// Doctor inspects the deployment without changing it.
func (i *Installer) Doctor(ctx context.Context) []Check {
	var checks []Check

	if ver, err := i.mgr.Version(ctx); err != nil {
		checks = append(checks, Check{Name: "systemctl", Required: true, Detail: err.Error()})
	} else {
		checks = append(checks, Check{Name: "systemctl", Required: true, OK: true, Detail: ver})
	}

	checks = append(checks, i.checkDataDir())

	// The store is not enough here: the daemon treats a missing or corrupt
	// settings file as "no alarm yet", but the doctor should flag both.
	if data, err := os.ReadFile(i.opts.SettingsPath); err != nil {
		checks = append(checks, Check{Name: "settings file", Required: true, Detail: err.Error()})
	} else if err := json.Unmarshal(data, new(alarm.Settings)); err != nil {
		checks = append(checks, Check{Name: "settings file", Required: true, Detail: "parse: " + err.Error()})
	} else {
		checks = append(checks, Check{Name: "settings file", Required: true, OK: true, Detail: i.opts.SettingsPath})
	}

	if _, err := state.Read(i.opts.StatePath); err != nil {
		checks = append(checks, Check{Name: "state file", Required: true, Detail: err.Error()})
	} else {
		checks = append(checks, Check{Name: "state file", Required: true, OK: true, Detail: i.opts.StatePath})
	}

	checks = append(checks, i.checkHistory(ctx))

	for _, name := range systemd.UnitNames() {
		path := filepath.Join(i.opts.UnitDir, name)
		if _, err := os.Stat(path); err != nil {
			checks = append(checks, Check{Name: "unit " + name, Required: true, Detail: err.Error()})
			continue
		}
		st, err := i.mgr.IsActive(ctx, name)
		if err != nil {
			checks = append(checks, Check{Name: "unit " + name, Required: true, Detail: err.Error()})
			continue
		}
		checks = append(checks, Check{Name: "unit " + name, Required: true, OK: st == "active", Detail: st})
	}

	for _, dev := range []string{"/dev/gpiomem", "/dev/mem"} {
		if _, err := os.Stat(dev); err != nil {
			checks = append(checks, Check{Name: dev, Detail: "not present"})
		} else {
			checks = append(checks, Check{Name: dev, OK: true, Detail: "present"})
		}
	}

	checks = append(checks, i.checkVcgencmd(ctx))
	return checks
}

func (i *Installer) checkDataDir() Check {
	c := Check{Name: "data dir", Required: true, Detail: i.opts.DataDir}
	info, err := os.Stat(i.opts.DataDir)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	if !info.IsDir() {
		c.Detail = i.opts.DataDir + " is not a directory"
		return c
	}
	probe, err := os.CreateTemp(i.opts.DataDir, ".doctor-*")
	if err != nil {
		c.Detail = "not writable: " + err.Error()
		return c
	}
	probe.Close()
	os.Remove(probe.Name())
	c.OK = true
	return c
}

// checkHistory only opens a database that already exists; the daemon creates
// it on first run, and a doctor run must not do that for it.
func (i *Installer) checkHistory(ctx context.Context) Check {
	c := Check{Name: "history db", Detail: i.opts.HistoryDB}
	if _, err := os.Stat(i.opts.HistoryDB); err != nil {
		c.Detail = "will be created on first run"
		return c
	}
	hist, err := history.Open(i.opts.HistoryDB, i.logger)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	defer hist.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := hist.Ping(pingCtx); err != nil {
		c.Detail = err.Error()
		return c
	}
	c.OK = true
	return c
}

func (i *Installer) checkVcgencmd(ctx context.Context) Check {
	c := Check{Name: "vcgencmd"}
	res, err := i.runner.Run(ctx, "vcgencmd", []string{"version"}, exec.RunOpts{})
	if err != nil {
		c.Detail = "not found (HDMI blanking unavailable)"
		return c
	}
	if res.ExitCode != 0 {
		c.Detail = fmt.Sprintf("exit %d", res.ExitCode)
		return c
	}
	line, _, _ := strings.Cut(res.Stdout, "\n")
	c.OK = true
	c.Detail = strings.TrimSpace(line)
	return c
}
