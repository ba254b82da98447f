package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"sunrised/internal/alarm"
	"sunrised/internal/settings"
)

var setCmd = &cobra.Command{
	Use:   "set <hour> <minute>",
	Short: "Set the alarm from the command line",
	Long: `Sets the morning alarm, 12-hour clock: "sunrised set 7 30" wakes you
at 07:30 AM. The running daemon picks the change up on its own.`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the alarm",
	RunE:  runDisable,
}

func runSet(cmd *cobra.Command, args []string) error {
	hour, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("hour must be a number, got %q", args[0])
	}
	minute, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("minute must be a number, got %q", args[1])
	}

	svc, done := cliService()
	defer done()

	st, err := svc.Set(context.Background(), hour, minute, alarm.SourceCLI)
	if err != nil {
		return err
	}
	fmt.Printf("alarm set for %s\n", st.Time)
	return nil
}

func runDisable(cmd *cobra.Command, args []string) error {
	svc, done := cliService()
	defer done()

	if _, err := svc.Disable(context.Background(), alarm.SourceCLI); err != nil {
		return err
	}
	fmt.Println("alarm disabled")
	return nil
}

// cliService builds the alarm service the way the daemon does, except it only
// records history into a database that already exists: a one-off CLI call must
// not create files under /var/lib as a side effect.
func cliService() (alarm.Service, func()) {
	store := settings.NewFileStore(cfg.Alarm.SettingsPath, logger)
	done := func() {}

	var rec alarm.Recorder
	if _, err := os.Stat(cfg.Alarm.HistoryDB); err == nil {
		if hist := openHistory(cfg.Alarm.HistoryDB); hist != nil {
			rec = hist
			done = func() { _ = hist.Close() }
		}
	}
	return alarm.NewService(store, rec, cfg.Alarm.LeadTime, logger), done
}
