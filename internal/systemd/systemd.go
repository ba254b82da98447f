package systemd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sunrised/internal/exec"
)

// Manager wraps the systemctl invocations the installer needs.
type Manager struct {
	runner exec.CommandRunner
	logger *zap.Logger
}

func NewManager(runner exec.CommandRunner, logger *zap.Logger) *Manager {
	return &Manager{runner: runner, logger: logger}
}

func (m *Manager) systemctl(ctx context.Context, args ...string) error {
	m.logger.Debug("systemctl", zap.Strings("args", args))
	res, err := m.runner.Run(ctx, "systemctl", args, exec.RunOpts{})
	if err != nil {
		return fmt.Errorf("systemctl %s: %w", strings.Join(args, " "), err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("systemctl %s: exit %d: %s",
			strings.Join(args, " "), res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// DaemonReload makes systemd pick up newly written unit files.
func (m *Manager) DaemonReload(ctx context.Context) error {
	return m.systemctl(ctx, "daemon-reload")
}

// Enable enables the unit at boot without starting it.
func (m *Manager) Enable(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "enable", unit)
}

// EnableNow enables the unit at boot and starts it immediately.
func (m *Manager) EnableNow(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "enable", "--now", unit)
}

// DisableNow stops the unit and removes it from boot.
func (m *Manager) DisableNow(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "disable", "--now", unit)
}

// Restart restarts the unit.
func (m *Manager) Restart(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "restart", unit)
}

// IsActive reports the unit's activation state ("active", "inactive",
// "failed", ...). systemctl exits non-zero for anything but active, so the
// exit code is ignored and the printed state is returned.
func (m *Manager) IsActive(ctx context.Context, unit string) (string, error) {
	res, err := m.runner.Run(ctx, "systemctl", []string{"is-active", unit}, exec.RunOpts{})
	if err != nil {
		return "", fmt.Errorf("systemctl is-active %s: %w", unit, err)
	}
	st := strings.TrimSpace(res.Stdout)
	if st == "" {
		st = "unknown"
	}
	return st, nil
}

// Version returns the first line of `systemctl --version`, used by the doctor
// to confirm systemd is present at all.
func (m *Manager) Version(ctx context.Context) (string, error) {
	res, err := m.runner.Run(ctx, "systemctl", []string{"--version"}, exec.RunOpts{})
	if err != nil {
		return "", fmt.Errorf("systemctl --version: %w", err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("systemctl --version: exit %d", res.ExitCode)
	}
	line, _, _ := strings.Cut(res.Stdout, "\n")
	return strings.TrimSpace(line), nil
}
