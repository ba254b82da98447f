package sunrise

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sunrised/internal/led"
)

// Progress is a snapshot of a running sequence, delivered once per step.
type Progress struct {
	Phase   string
	Color   led.Color
	Elapsed time.Duration
	Total   time.Duration
	Done    bool
}

// Player runs a profile against a strip. It owns the pacing; the caller owns
// what happens to the strip afterwards (the final color stays lit on success,
// and whatever was showing stays on cancellation).
type Player struct {
	strip  led.Strip
	logger *zap.Logger
}

func NewPlayer(strip led.Strip, logger *zap.Logger) *Player {
	return &Player{strip: strip, logger: logger}
}

// Run plays the profile to completion or cancellation. override > 0 replays
// the whole sequence in that wall-clock time, scaling every phase
// proportionally; 0 keeps the natural pace. Returns ctx.Err() when stopped
// early.
func (pl *Player) Run(ctx context.Context, prof Profile, override time.Duration, onStep func(Progress)) error {
	if err := prof.Validate(); err != nil {
		return err
	}

	natural := prof.Total()
	total := natural
	scale := 1.0
	if override > 0 {
		total = override
		scale = float64(override) / float64(natural)
	}

	pl.logger.Info("sunrise starting",
		zap.String("profile", prof.Name),
		zap.Duration("total", total),
	)

	var elapsed time.Duration
	for i, ph := range prof.Phases {
		from := prof.from(i)
		delay := time.Duration(float64(ph.Duration) * scale / float64(ph.Steps))
		for step := 0; step < ph.Steps; step++ {
			c := Lerp(from, ph.To, step, ph.Steps)
			if err := led.Fill(pl.strip, c); err != nil {
				return fmt.Errorf("show frame: %w", err)
			}
			if onStep != nil {
				onStep(Progress{Phase: ph.Name, Color: c, Elapsed: elapsed, Total: total})
			}
			if err := sleep(ctx, delay); err != nil {
				pl.logger.Info("sunrise stopped",
					zap.String("profile", prof.Name),
					zap.String("phase", ph.Name),
					zap.Duration("elapsed", elapsed),
				)
				return err
			}
			elapsed += delay
		}
	}

	// Hold the final color; clearing it is the caller's decision.
	final := prof.Final()
	if err := led.Fill(pl.strip, final); err != nil {
		return fmt.Errorf("show frame: %w", err)
	}
	if onStep != nil {
		onStep(Progress{Phase: "hold", Color: final, Elapsed: total, Total: total, Done: true})
	}

	pl.logger.Info("sunrise complete", zap.String("profile", prof.Name))
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
