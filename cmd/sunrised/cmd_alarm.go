package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sunrised/internal/alarm"
	"sunrised/internal/button"
	"sunrised/internal/engine"
	"sunrised/internal/history"
	"sunrised/internal/led"
	"sunrised/internal/otel"
	"sunrised/internal/settings"
	"sunrised/internal/state"
	"sunrised/internal/sunrise"
)

var alarmCmd = &cobra.Command{
	Use:   "alarm",
	Short: "Run the LED alarm daemon",
	Long: `Runs the daemon behind sunrised.service: watches the settings file,
triggers the sunrise so it completes at the wake time, and serves the push
button for on-device programming. Requires root for the WS281x driver.`,
	RunE: runAlarm,
}

func runAlarm(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	strip, err := led.NewWS281x(cfg.LED)
	if err != nil {
		return fmt.Errorf("open led strip: %w", err)
	}
	defer strip.Close()

	input, err := button.NewGPIO(cfg.Button.GPIO)
	if err != nil {
		return fmt.Errorf("open button: %w", err)
	}
	defer input.Close()

	store := settings.NewFileStore(cfg.Alarm.SettingsPath, logger)
	watcher, err := settings.NewWatcher(store, 0, logger)
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}

	if _, err := os.Stat(cfg.Alarm.StatePath); errors.Is(err, os.ErrNotExist) {
		if err := state.Seed(cfg.Alarm.StatePath); err != nil {
			return fmt.Errorf("seed state file: %w", err)
		}
	}
	pub := state.NewPublisher(cfg.Alarm.StatePath, 500*time.Millisecond, logger)
	defer pub.Close()

	var rec alarm.Recorder
	if hist := openHistory(cfg.Alarm.HistoryDB); hist != nil {
		rec = hist
		defer hist.Close()
	}

	svc := alarm.NewService(store, rec, cfg.Alarm.LeadTime, logger)

	prof, err := sunrise.Load(cfg.Alarm.Profile, cfg.Alarm.ProfilePath)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := engine.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	eng := engine.New(engine.Options{
		Config:    cfg.Alarm,
		Button:    cfg.Button,
		Strip:     strip,
		Input:     input,
		Store:     store,
		Watcher:   watcher,
		Service:   svc,
		Recorder:  rec,
		Publisher: pub,
		Profile:   prof,
		Metrics:   metrics,
		Logger:    logger,
	})
	ops := engine.NewOpsServer(cfg.Alarm.OpsAddr, reg, cfg.Alarm.StatePath, store, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return ops.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("daemon stopped")
	return nil
}

// openHistory opens the event database, or returns nil if it cannot: history
// is never a reason for the lamp not to work.
func openHistory(path string) *history.Store {
	hist, err := history.Open(path, logger)
	if err != nil {
		logger.Warn("history database unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return hist
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
