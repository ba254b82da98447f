package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sunrised/internal/alarm"
	sysexec "sunrised/internal/exec"
	"sunrised/internal/install"
	"sunrised/internal/settings"
	"sunrised/internal/systemd"
)

var (
	installBin     string
	installUnitDir string
	installNoStart bool
	uninstallPurge bool
	doctorSeed     bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the systemd units",
	Long: `Writes sunrised.service and sunrised-web.service, seeds the data
directory, reloads systemd and starts both units. Run as root.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newInstaller()
		if err != nil {
			return err
		}
		if err := inst.Install(context.Background()); err != nil {
			return err
		}
		if installNoStart {
			fmt.Println("units installed and enabled; start them with systemctl")
		} else {
			fmt.Println("units installed; the alarm survives reboots now")
		}
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the systemd units",
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newInstaller()
		if err != nil {
			return err
		}
		if err := inst.Uninstall(context.Background(), uninstallPurge); err != nil {
			return err
		}
		if uninstallPurge {
			fmt.Println("units and data removed")
		} else {
			fmt.Println("units removed; settings and history kept")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the units, the alarm and the latest events",
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newInstaller()
		if err != nil {
			return err
		}
		ctx := context.Background()
		sts, err := inst.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range sts {
			fmt.Printf("%-24s %s\n", st.Unit, st.State)
		}

		set, err := settings.NewFileStore(cfg.Alarm.SettingsPath, logger).Load()
		if err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		switch {
		case set.Time == "":
			fmt.Println("alarm: not set")
		case set.Enabled:
			fmt.Printf("alarm: %s\n", set.Time)
		default:
			fmt.Printf("alarm: %s (disabled)\n", set.Time)
		}
		if trigger, ok := alarm.NextTrigger(time.Now(), set, cfg.Alarm.LeadTime); ok {
			fmt.Printf("next sunrise: %s\n", trigger.Format("Mon Jan 2 15:04"))
		}

		if _, err := os.Stat(cfg.Alarm.HistoryDB); err == nil {
			if hist := openHistory(cfg.Alarm.HistoryDB); hist != nil {
				defer hist.Close()
				events, err := hist.Recent(ctx, 5)
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				if len(events) > 0 {
					fmt.Println("recent events:")
					for _, ev := range events {
						fmt.Printf("  %s  %-18s %-7s %s\n",
							ev.At.Format("Jan 02 15:04"), ev.Kind, ev.Source, ev.Detail)
					}
				}
			}
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the machine for everything the alarm needs",
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newInstaller()
		if err != nil {
			return err
		}
		if doctorSeed {
			if err := inst.Seed(); err != nil {
				return err
			}
		}
		checks := inst.Doctor(context.Background())
		for _, c := range checks {
			mark := "ok"
			if !c.OK {
				if c.Required {
					mark = "FAIL"
				} else {
					mark = "warn"
				}
			}
			fmt.Printf("%-5s %-18s %s\n", mark, c.Name, c.Detail)
		}
		if install.Failed(checks) {
			return errors.New("doctor found problems")
		}
		fmt.Println("everything looks good")
		return nil
	},
}

func newInstaller() (*install.Installer, error) {
	bin := installBin
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate binary: %w", err)
		}
		bin = exe
	}
	unitDir := installUnitDir
	if unitDir == "" {
		unitDir = systemd.UnitDir
	}
	runner := sysexec.NewRealRunner()
	mgr := systemd.NewManager(runner, logger)
	return install.New(mgr, runner, install.Options{
		BinPath:      bin,
		UnitDir:      unitDir,
		DataDir:      filepath.Dir(cfg.Alarm.SettingsPath),
		SettingsPath: cfg.Alarm.SettingsPath,
		StatePath:    cfg.Alarm.StatePath,
		HistoryDB:    cfg.Alarm.HistoryDB,
		NoStart:      installNoStart,
	}, logger), nil
}

func init() {
	installCmd.Flags().StringVar(&installBin, "bin", "", "binary path for the unit files (default: this executable)")
	installCmd.Flags().StringVar(&installUnitDir, "unit-dir", systemd.UnitDir, "directory to write unit files into")
	installCmd.Flags().BoolVar(&installNoStart, "no-start", false, "enable the units without starting them")
	uninstallCmd.Flags().StringVar(&installUnitDir, "unit-dir", systemd.UnitDir, "directory the unit files were written into")
	uninstallCmd.Flags().BoolVar(&uninstallPurge, "purge", false, "also delete settings, state and history")
	doctorCmd.Flags().StringVar(&installUnitDir, "unit-dir", systemd.UnitDir, "directory the unit files were written into")
	doctorCmd.Flags().BoolVar(&doctorSeed, "seed", false, "create missing data files before checking")
}
