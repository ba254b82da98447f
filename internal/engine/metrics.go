package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"sunrised/internal/led"
)

// Metrics holds the daemon's instrumentation.
type Metrics struct {
	Triggered  prometheus.Counter
	Runs       *prometheus.CounterVec
	Enabled    prometheus.Gauge
	LEDChannel *prometheus.GaugeVec
	Presses    *prometheus.CounterVec
}

// NewMetrics creates and registers the daemon metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Triggered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alarm_triggered_total",
			Help: "Number of times the alarm trigger fired.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sunrise_runs_total",
			Help: "Sunrise sequences by outcome.",
		}, []string{"outcome"}),
		Enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alarm_enabled",
			Help: "Whether an alarm is currently enabled (0 or 1).",
		}),
		LEDChannel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "led_channel_value",
			Help: "Current LED color per channel (0-255).",
		}, []string{"channel"}),
		Presses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "button_presses_total",
			Help: "Button interactions by action.",
		}, []string{"action"}),
	}

	for _, c := range []prometheus.Collector{m.Triggered, m.Runs, m.Enabled, m.LEDChannel, m.Presses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SetColor mirrors the strip's current color into the channel gauges.
func (m *Metrics) SetColor(c led.Color) {
	m.LEDChannel.WithLabelValues("r").Set(float64(c.R))
	m.LEDChannel.WithLabelValues("g").Set(float64(c.G))
	m.LEDChannel.WithLabelValues("b").Set(float64(c.B))
}

// SetEnabled mirrors the alarm toggle.
func (m *Metrics) SetEnabled(on bool) {
	if on {
		m.Enabled.Set(1)
	} else {
		m.Enabled.Set(0)
	}
}
