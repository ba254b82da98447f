package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sunrised/internal/button"
	"sunrised/internal/led"
	"sunrised/internal/sunrise"
	"sunrised/internal/ui"
)

var (
	testProfile  string
	testDuration time.Duration
	testSimulate bool
)

var testledsCmd = &cobra.Command{
	Use:   "testleds",
	Short: "Exercise the strip and the button without touching the alarm",
	Long: `Plays a sunrise on demand: press the button to start, press again to
stop, and once more to clear the held final color. With --simulate the strip
and the button are rendered in the terminal, so the wiring can be rehearsed
on any machine.`,
	RunE: runTestLEDs,
}

func init() {
	testledsCmd.Flags().StringVar(&testProfile, "profile", "demo", "built-in profile name or path to a profile file")
	testledsCmd.Flags().DurationVar(&testDuration, "duration", 0,
		"replay the whole profile in this long, e.g. 30s (0 keeps the natural pace)")
	testledsCmd.Flags().BoolVar(&testSimulate, "simulate", false,
		"render the strip in the terminal instead of driving hardware")
}

func runTestLEDs(cmd *cobra.Command, args []string) error {
	prof, err := loadTestProfile(testProfile)
	if err != nil {
		return err
	}
	if testSimulate {
		return runSimulated(prof)
	}
	return runHardware(prof)
}

func runHardware(prof sunrise.Profile) error {
	ctx, cancel := signalContext()
	defer cancel()

	strip, err := led.NewWS281x(cfg.LED)
	if err != nil {
		return fmt.Errorf("open led strip: %w", err)
	}
	defer strip.Close()
	defer led.Clear(strip)

	input, err := button.NewGPIO(cfg.Button.GPIO)
	if err != nil {
		return fmt.Errorf("open button: %w", err)
	}
	defer input.Close()

	fmt.Println("press the button to start the sunrise; Ctrl-C exits")
	player := sunrise.NewPlayer(strip, logger)
	return playLoop(ctx, player, prof, strip, input,
		func(s string) { fmt.Println(s) }, nil)
}

func runSimulated(prof sunrise.Profile) error {
	strip := led.NewSimStrip(cfg.LED.Count)
	btn := button.NewSim()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Space taps the virtual button: a short press, like a finger.
	tap := func() {
		btn.Press()
		time.AfterFunc(150*time.Millisecond, btn.Release)
	}
	p := tea.NewProgram(ui.New(cfg.LED.Count, tap, cancel), tea.WithAltScreen())

	strip.SetObserver(func(frame []led.Color) {
		p.Send(ui.FrameMsg(frame))
	})

	// The TUI owns the terminal, so the player must not log to it.
	player := sunrise.NewPlayer(strip, zap.NewNop())
	go func() {
		err := playLoop(ctx, player, prof, strip, btn,
			func(s string) { p.Send(ui.StatusMsg(s)) },
			func(pr sunrise.Progress) { p.Send(ui.ProgressMsg(pr)) })
		p.Send(ui.DoneMsg{Err: err})
	}()

	out, err := p.Run()
	cancel()
	if err != nil {
		return err
	}
	if m, ok := out.(ui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// playLoop is the button-driven demo cycle shared by hardware and simulator:
// press starts a sunrise, a press during playback stops and clears it, and a
// press after completion clears the held final color. Runs until ctx ends.
func playLoop(ctx context.Context, player *sunrise.Player, prof sunrise.Profile,
	strip led.Strip, in button.Input, status func(string), progress func(sunrise.Progress)) error {
	for {
		status("waiting for the button")
		if err := waitButton(ctx, in, true); err != nil {
			return ignoreCanceled(err)
		}
		if err := waitButton(ctx, in, false); err != nil {
			return ignoreCanceled(err)
		}

		status("sunrise running, press again to stop")
		runCtx, stop := context.WithCancel(ctx)
		go cancelOnPress(runCtx, in, stop)
		err := player.Run(runCtx, prof, testDuration, progress)
		stop()

		switch {
		case err == nil:
			status("sunrise complete, press the button to clear")
			if err := waitButton(ctx, in, true); err != nil {
				return ignoreCanceled(err)
			}
			_ = led.Clear(strip)
			if err := waitButton(ctx, in, false); err != nil {
				return ignoreCanceled(err)
			}
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return nil
		case errors.Is(err, context.Canceled):
			status("stopped")
			_ = led.Clear(strip)
			if err := waitButton(ctx, in, false); err != nil {
				return ignoreCanceled(err)
			}
		default:
			return err
		}
	}
}

// waitButton blocks until the button reads want, polling at the engine tick.
func waitButton(ctx context.Context, in button.Input, want bool) error {
	t := time.NewTicker(cfg.Alarm.Tick)
	defer t.Stop()
	for {
		pressed, err := in.Pressed()
		if err != nil {
			return err
		}
		if pressed == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// cancelOnPress cancels a running playback when the button is pressed.
func cancelOnPress(ctx context.Context, in button.Input, cancel context.CancelFunc) {
	t := time.NewTicker(cfg.Alarm.Tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if pressed, err := in.Pressed(); err == nil && pressed {
				cancel()
				return
			}
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadTestProfile accepts a built-in name or a path to a profile file.
func loadTestProfile(arg string) (sunrise.Profile, error) {
	if strings.ContainsRune(arg, os.PathSeparator) ||
		strings.HasSuffix(arg, ".yaml") || strings.HasSuffix(arg, ".yml") {
		return sunrise.Load("", arg)
	}
	return sunrise.Load(arg, "")
}
