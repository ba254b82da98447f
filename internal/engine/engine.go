// Package engine is the daemon core: it watches the clock and the settings
// document, drives the sunrise sequence, and runs the whole button interface
// (setup, disable, stop) against the strip.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"sunrised/internal/alarm"
	"sunrised/internal/button"
	"sunrised/internal/config"
	"sunrised/internal/led"
	"sunrised/internal/settings"
	"sunrised/internal/state"
	"sunrised/internal/sunrise"
)

// timings are the interaction constants the hardware interface was tuned
// with. Tests shrink them; production uses the defaults.
type timings struct {
	poll          time.Duration // inner poll while waiting on the button
	cycleDebounce time.Duration // pause after a short press registered
	betweenSteps  time.Duration // pause between hour and minute selection
	stopDebounce  time.Duration // pause after stopping a sunrise
	confirmFlash  time.Duration // green flash on/off time
	disableFlash  time.Duration // red flash on/off time
	settingsPoll  time.Duration // fallback settings reload when the watcher misses
}

func defaultTimings() timings {
	return timings{
		poll:          10 * time.Millisecond,
		cycleDebounce: 200 * time.Millisecond,
		betweenSteps:  500 * time.Millisecond,
		stopDebounce:  500 * time.Millisecond,
		confirmFlash:  100 * time.Millisecond,
		disableFlash:  150 * time.Millisecond,
		settingsPoll:  time.Minute,
	}
}

// Options wires the engine's collaborators.
type Options struct {
	Config    config.AlarmConfig
	Button    config.ButtonConfig
	Strip     led.Strip
	Input     button.Input
	Store     alarm.SettingsStore
	Watcher   *settings.Watcher // optional; settings changes only apply on restart without it
	Service   alarm.Service
	Recorder  alarm.Recorder   // optional
	Publisher *state.Publisher // optional
	Profile   sunrise.Profile
	Metrics   *Metrics // optional; a private registry is used when absent
	Logger    *zap.Logger
}

// Engine is single-threaded by construction: one loop owns the strip, the
// button, and the cached settings, exactly like the hardware it replaces.
type Engine struct {
	cfg     config.AlarmConfig
	btn     config.ButtonConfig
	strip   led.Strip
	input   button.Input
	store   alarm.SettingsStore
	watcher *settings.Watcher
	svc     alarm.Service
	rec     alarm.Recorder
	pub     *state.Publisher
	profile sunrise.Profile
	player  *sunrise.Player
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
	t       timings

	settings  alarm.Settings
	lastFired time.Time
}

func New(opts Options) *Engine {
	m := opts.Metrics
	if m == nil {
		m, _ = NewMetrics(prometheus.NewRegistry())
	}
	return &Engine{
		cfg:     opts.Config,
		btn:     opts.Button,
		strip:   opts.Strip,
		input:   opts.Input,
		store:   opts.Store,
		watcher: opts.Watcher,
		svc:     opts.Service,
		rec:     opts.Recorder,
		pub:     opts.Publisher,
		profile: opts.Profile,
		player:  sunrise.NewPlayer(opts.Strip, opts.Logger),
		metrics: m,
		logger:  opts.Logger,
		now:     time.Now,
		t:       defaultTimings(),
	}
}

// Run drives the daemon until ctx is cancelled. The strip is dark when Run
// returns.
func (e *Engine) Run(ctx context.Context) error {
	set, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	e.applySettings(set)
	e.clear()

	if e.watcher != nil {
		if err := e.watcher.Start(ctx); err != nil {
			return fmt.Errorf("watch settings: %w", err)
		}
		defer e.watcher.Stop()
	}

	e.logger.Info("alarm engine started",
		zap.Bool("enabled", set.Enabled),
		zap.String("time", set.Time),
		zap.String("profile", e.profile.Name),
		zap.Duration("lead", e.cfg.LeadTime),
	)

	err = e.loop(ctx)
	e.clear()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *Engine) loop(ctx context.Context) error {
	var changes <-chan alarm.Settings
	if e.watcher != nil {
		changes = e.watcher.C
	}

	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()

	reload := e.t.settingsPoll
	if reload <= 0 {
		reload = time.Minute
	}
	fallback := time.NewTicker(reload)
	defer fallback.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case set := <-changes:
			e.applySettings(set)
		case <-fallback.C:
			set, err := e.store.Load()
			if err != nil {
				e.logger.Warn("reload settings", zap.Error(err))
				continue
			}
			e.applySettings(set)
		case <-ticker.C:
			if err := e.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (e *Engine) tick(ctx context.Context) error {
	if trigger, ok := alarm.Due(e.now(), e.settings, e.cfg.LeadTime, e.lastFired); ok {
		e.lastFired = trigger
		return e.runSunrise(ctx)
	}

	pressed, err := e.input.Pressed()
	if err != nil {
		e.logger.Warn("read button", zap.Error(err))
		return nil
	}
	if pressed {
		return e.handleIdlePress(ctx)
	}
	return nil
}

func (e *Engine) applySettings(set alarm.Settings) {
	if set != e.settings {
		e.logger.Info("settings changed",
			zap.Bool("enabled", set.Enabled),
			zap.String("time", set.Time),
		)
	}
	e.settings = set
	e.metrics.SetEnabled(set.Enabled)
}

// runSunrise plays the profile and handles the button for the whole alarm:
// a press during the ramp stops it, a press afterwards turns the held light
// off.
func (e *Engine) runSunrise(ctx context.Context) error {
	e.logger.Info("alarm triggered", zap.String("time", e.settings.Time))
	e.metrics.Triggered.Inc()
	e.recordEvent(ctx, alarm.EventTriggered, e.settings.Time)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- e.player.Run(runCtx, e.profile, 0, func(p sunrise.Progress) {
			e.publish(p.Color)
		})
	}()

	poll := time.NewTicker(e.t.poll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			cancel()
			<-done
			return ctx.Err()

		case err := <-done:
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return ctx.Err()
				}
				return fmt.Errorf("sunrise playback: %w", err)
			}
			e.metrics.Runs.WithLabelValues("completed").Inc()
			e.recordEvent(ctx, alarm.EventSunriseCompleted, e.profile.Name)
			return e.holdUntilPress(ctx)

		case <-poll.C:
			pressed, err := e.input.Pressed()
			if err != nil {
				e.logger.Warn("read button", zap.Error(err))
				continue
			}
			if !pressed {
				continue
			}
			cancel()
			<-done
			e.logger.Info("sunrise stopped by button")
			e.metrics.Presses.WithLabelValues("stop").Inc()
			e.metrics.Runs.WithLabelValues("stopped").Inc()
			e.recordEvent(ctx, alarm.EventSunriseStopped, e.profile.Name)
			e.clear()
			if err := e.waitRelease(ctx); err != nil {
				return err
			}
			return e.sleep(ctx, e.t.stopDebounce)
		}
	}
}

// holdUntilPress keeps the completed sunrise lit until the button clears it.
func (e *Engine) holdUntilPress(ctx context.Context) error {
	if err := e.waitPress(ctx); err != nil {
		return err
	}
	e.metrics.Presses.WithLabelValues("stop").Inc()
	e.clear()
	if err := e.waitRelease(ctx); err != nil {
		return err
	}
	return e.sleep(ctx, e.t.stopDebounce)
}

// handleIdlePress lights the strip white while the button is held. Holding
// past the disable threshold disables the alarm; releasing earlier enters
// setup.
func (e *Engine) handleIdlePress(ctx context.Context) error {
	e.show(led.WarmWhite.Scaled(0.1))
	start := e.now()

	for {
		if err := e.sleep(ctx, e.t.poll); err != nil {
			return err
		}
		pressed, err := e.input.Pressed()
		if err != nil {
			e.logger.Warn("read button", zap.Error(err))
			continue
		}
		if !pressed {
			break
		}
		if e.now().Sub(start) >= e.btn.DisablePress {
			return e.disableByButton(ctx)
		}
	}

	e.metrics.Presses.WithLabelValues("setup").Inc()
	e.clear()
	return e.setupAlarm(ctx)
}

func (e *Engine) disableByButton(ctx context.Context) error {
	e.metrics.Presses.WithLabelValues("disable").Inc()
	set, err := e.svc.Disable(ctx, alarm.SourceButton)
	if err != nil {
		e.logger.Error("disable alarm", zap.Error(err))
	} else {
		e.applySettings(set)
	}
	if err := e.flash(ctx, led.DisableRed.Scaled(0.1), 3, e.t.disableFlash); err != nil {
		return err
	}
	if err := e.waitRelease(ctx); err != nil {
		return err
	}
	e.clear()
	return nil
}

// setupAlarm walks hour then minute selection and saves the result enabled.
func (e *Engine) setupAlarm(ctx context.Context) error {
	e.logger.Info("entering setup mode")

	hour, minute := 7, 0
	if t, err := alarm.ParseTime(e.settings.Time); err == nil {
		hour = t.Hour
		minute = (t.Minute / 5) * 5
	}

	hour, err := e.selectHour(ctx, hour)
	if err != nil {
		return err
	}
	if err := e.sleep(ctx, e.t.betweenSteps); err != nil {
		return err
	}
	minute, err = e.selectMinute(ctx, minute)
	if err != nil {
		return err
	}
	if err := e.sleep(ctx, e.t.betweenSteps); err != nil {
		return err
	}

	set, err := e.svc.Set(ctx, hour, minute, alarm.SourceButton)
	if err != nil {
		e.logger.Error("save alarm", zap.Error(err))
	} else {
		e.applySettings(set)
	}

	if err := e.flash(ctx, led.ConfirmNew.Scaled(0.1), 2, e.t.confirmFlash); err != nil {
		return err
	}
	e.clear()
	e.logger.Info("setup complete", zap.Int("hour", hour), zap.Int("minute", minute))
	return nil
}

// selectHour cycles 1..12 on short presses; a hold confirms. The strip shows
// the candidate as lit pixels, one per hour.
func (e *Engine) selectHour(ctx context.Context, hour int) (int, error) {
	e.showHour(hour)
	for {
		confirmed, err := e.nextPress(ctx)
		if err != nil {
			return 0, err
		}
		if confirmed {
			if err := e.confirmSelection(ctx); err != nil {
				return 0, err
			}
			e.logger.Info("hour confirmed", zap.Int("hour", hour))
			return hour, nil
		}
		hour = hour%12 + 1
		e.showHour(hour)
		if err := e.sleep(ctx, e.t.cycleDebounce); err != nil {
			return 0, err
		}
	}
}

// selectMinute advances in 5 minute steps, one lit pixel per step.
func (e *Engine) selectMinute(ctx context.Context, minute int) (int, error) {
	e.showMinute(minute)
	for {
		confirmed, err := e.nextPress(ctx)
		if err != nil {
			return 0, err
		}
		if confirmed {
			if err := e.confirmSelection(ctx); err != nil {
				return 0, err
			}
			e.logger.Info("minute confirmed", zap.Int("minute", minute))
			return minute, nil
		}
		minute = (minute + 5) % 60
		e.showMinute(minute)
		if err := e.sleep(ctx, e.t.cycleDebounce); err != nil {
			return 0, err
		}
	}
}

// nextPress waits for a press and reports whether it was held long enough to
// count as a confirm (true) or released early as a cycle (false).
func (e *Engine) nextPress(ctx context.Context) (bool, error) {
	if err := e.waitPress(ctx); err != nil {
		return false, err
	}
	start := e.now()
	for {
		if err := e.sleep(ctx, e.t.poll); err != nil {
			return false, err
		}
		pressed, err := e.input.Pressed()
		if err != nil {
			e.logger.Warn("read button", zap.Error(err))
			continue
		}
		if !pressed {
			return false, nil
		}
		if e.now().Sub(start) > e.btn.SetupPress {
			return true, nil
		}
	}
}

func (e *Engine) confirmSelection(ctx context.Context) error {
	if err := e.flash(ctx, led.ConfirmNew.Scaled(0.1), 2, e.t.confirmFlash); err != nil {
		return err
	}
	if err := e.waitRelease(ctx); err != nil {
		return err
	}
	return e.sleep(ctx, e.t.cycleDebounce)
}

func (e *Engine) waitPress(ctx context.Context) error {
	return e.waitButton(ctx, true)
}

func (e *Engine) waitRelease(ctx context.Context) error {
	return e.waitButton(ctx, false)
}

func (e *Engine) waitButton(ctx context.Context, want bool) error {
	for {
		pressed, err := e.input.Pressed()
		if err != nil {
			e.logger.Warn("read button", zap.Error(err))
		} else if pressed == want {
			return nil
		}
		if err := e.sleep(ctx, e.t.poll); err != nil {
			return err
		}
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Engine) recordEvent(ctx context.Context, kind, detail string) {
	if e.rec == nil {
		return
	}
	if err := e.rec.Record(ctx, alarm.Event{Kind: kind, Detail: detail, Source: alarm.SourceDaemon, At: e.now()}); err != nil {
		e.logger.Warn("record event", zap.String("kind", kind), zap.Error(err))
	}
}
