package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sunrised/internal/config"
)

var (
	verbose bool

	cfg    *config.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sunrised",
	Short: "Sunrise alarm lamp: daemon, web interface, and installer",
	Long: `sunrised drives a WS281x LED strip on a Raspberry Pi as a sunrise alarm:
a 20-minute light ramp that completes exactly at the configured wake time,
programmable from a push button, a web page, or this CLI.

One binary serves every role:

  sunrised alarm     the LED/button daemon (systemd: sunrised.service)
  sunrised web       the web interface on :5000 (systemd: sunrised-web.service)
  sunrised install   deploy both services under systemd
  sunrised testleds  exercise the strip, with --simulate for machines without one`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		zc := zap.NewProductionConfig()
		level := zapcore.InfoLevel
		if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
			level = lvl
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)

		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(alarmCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(testledsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
