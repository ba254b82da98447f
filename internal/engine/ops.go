package engine

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sunrised/internal/alarm"
	"sunrised/internal/state"
)

// OpsServer is the daemon's diagnostics listener: liveness, Prometheus
// metrics, and read-only views of the settings and state documents. The
// user-facing web interface is a separate process.
type OpsServer struct {
	app    *fiber.App
	addr   string
	logger *zap.Logger
}

func NewOpsServer(addr string, gatherer prometheus.Gatherer, statePath string, store alarm.SettingsStore, logger *zap.Logger) *OpsServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Get("/state", func(c *fiber.Ctx) error {
		snap, err := state.Read(statePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no state file yet"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "state file unreadable"})
		}
		return c.JSON(snap)
	})

	app.Get("/alarm", func(c *fiber.Ctx) error {
		set, err := store.Load()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "settings unreadable"})
		}
		return c.JSON(set)
	})

	return &OpsServer{app: app, addr: addr, logger: logger}
}

// Run serves until ctx is cancelled.
func (s *OpsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()
	s.logger.Info("ops listener started", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(2 * time.Second); err != nil {
			s.logger.Warn("ops shutdown", zap.Error(err))
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
