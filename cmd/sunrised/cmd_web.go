package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sunrised/internal/alarm"
	sysexec "sunrised/internal/exec"
	"sunrised/internal/http/handler"
	"sunrised/internal/http/middleware"
	"sunrised/internal/otel"
	"sunrised/internal/settings"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Run the alarm web interface",
	Long: `Runs the phone-friendly web page behind sunrised-web.service. The page
reads and writes the same settings file the daemon watches, so changes
apply without restarting anything.`,
	RunE: runWeb,
}

func runWeb(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// The Pi drives nothing over HDMI; leaving the port powered just wastes
	// a watt next to someone trying to sleep.
	if cfg.Web.DisableHDMI {
		runner := sysexec.NewRealRunner()
		res, err := runner.Run(ctx, "vcgencmd", []string{"display_power", "0"}, sysexec.RunOpts{})
		if err != nil || res.ExitCode != 0 {
			logger.Warn("could not turn off HDMI display",
				zap.Error(err), zap.Int("exit", res.ExitCode))
		}
	}

	store := settings.NewFileStore(cfg.Alarm.SettingsPath, logger)

	var rec alarm.Recorder
	var db handler.Pinger
	if hist := openHistory(cfg.Alarm.HistoryDB); hist != nil {
		rec = hist
		db = hist
		defer hist.Close()
	}

	svc := alarm.NewService(store, rec, cfg.Alarm.LeadTime, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(),
	})

	reg := prometheus.NewRegistry()

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(middleware.Prometheus(reg))
	app.Use(otelfiber.Middleware())

	handler.RegisterRoutes(app, svc, rec, db, cfg.Alarm.StatePath)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Web.Port
	logger.Info("web interface listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}
