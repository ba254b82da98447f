package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sunrised/internal/led"
)

// show fills the strip and mirrors the color to the state file and gauges.
func (e *Engine) show(c led.Color) {
	if err := led.Fill(e.strip, c); err != nil {
		e.logger.Warn("show color", zap.Error(err))
	}
	e.publish(c)
}

func (e *Engine) clear() {
	if err := led.Clear(e.strip); err != nil {
		e.logger.Warn("clear strip", zap.Error(err))
	}
	e.publish(led.Off)
}

// showHour lights one pixel per hour, 1..12.
func (e *Engine) showHour(hour int) {
	if err := led.FillN(e.strip, hour, led.WarmWhite.Scaled(0.1)); err != nil {
		e.logger.Warn("show hour", zap.Error(err))
	}
	e.publish(led.WarmWhite.Scaled(0.1))
}

// showMinute lights one pixel per 5 minutes, 0..11.
func (e *Engine) showMinute(minute int) {
	if err := led.FillN(e.strip, minute/5, led.WarmWhite.Scaled(0.1)); err != nil {
		e.logger.Warn("show minute", zap.Error(err))
	}
	e.publish(led.WarmWhite.Scaled(0.1))
}

// flash blinks the whole strip count times with d on and d off.
func (e *Engine) flash(ctx context.Context, c led.Color, count int, d time.Duration) error {
	for i := 0; i < count; i++ {
		e.show(c)
		if err := e.sleep(ctx, d); err != nil {
			return err
		}
		e.clear()
		if err := e.sleep(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) publish(c led.Color) {
	if e.pub != nil {
		e.pub.Publish(c)
	}
	e.metrics.SetColor(c)
}
