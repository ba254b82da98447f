package alarm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StatusReport is the full picture of the configured alarm, as served by the
// web API and the status command.
type StatusReport struct {
	Settings    Settings   `json:"settings"`
	NextWake    *time.Time `json:"next_wake"`
	NextTrigger *time.Time `json:"next_trigger"`
	LeadMinutes int        `json:"lead_minutes"`
}

// Service is the single write path for alarm settings. Every surface (web,
// CLI, button) goes through it so changes are validated and recorded the same
// way.
type Service interface {
	Get(ctx context.Context) (Settings, error)
	Set(ctx context.Context, hour, minute int, source string) (Settings, error)
	Disable(ctx context.Context, source string) (Settings, error)
	Status(ctx context.Context) (StatusReport, error)
}

type service struct {
	store  SettingsStore
	rec    Recorder
	lead   time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the settings store and history recorder into a Service.
// rec may be nil when no history database is available; events are then
// dropped.
func NewService(store SettingsStore, rec Recorder, lead time.Duration, logger *zap.Logger) Service {
	return &service{
		store:  store,
		rec:    rec,
		lead:   lead,
		logger: logger,
		now:    time.Now,
	}
}

func (s *service) Get(ctx context.Context) (Settings, error) {
	return s.store.Load()
}

func (s *service) Set(ctx context.Context, hour, minute int, source string) (Settings, error) {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		return Settings{}, err
	}
	next := Settings{Enabled: true, Time: t.String()}
	if err := s.store.Save(next); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.record(ctx, Event{Kind: EventSet, Detail: t.String(), Source: source, At: s.now()})
	s.logger.Info("alarm set", zap.String("time", t.String()), zap.String("source", source))
	return next, nil
}

func (s *service) Disable(ctx context.Context, source string) (Settings, error) {
	cur, err := s.store.Load()
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	next := Settings{Enabled: false, Time: cur.Time}
	if err := s.store.Save(next); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.record(ctx, Event{Kind: EventDisabled, Detail: cur.Time, Source: source, At: s.now()})
	s.logger.Info("alarm disabled", zap.String("source", source))
	return next, nil
}

func (s *service) Status(ctx context.Context) (StatusReport, error) {
	cur, err := s.store.Load()
	if err != nil {
		return StatusReport{}, fmt.Errorf("load settings: %w", err)
	}
	report := StatusReport{
		Settings:    cur,
		LeadMinutes: int(s.lead / time.Minute),
	}
	if trigger, ok := NextTrigger(s.now(), cur, s.lead); ok {
		wake := trigger.Add(s.lead)
		report.NextTrigger = &trigger
		report.NextWake = &wake
	}
	return report, nil
}

func (s *service) record(ctx context.Context, e Event) {
	if s.rec == nil {
		return
	}
	if err := s.rec.Record(ctx, e); err != nil {
		s.logger.Warn("record event", zap.String("kind", e.Kind), zap.Error(err))
	}
}
