// Package alarm holds the wake-time domain: the settings document shared by the
// daemon, the web interface and the CLI, and the arithmetic that decides when a
// sunrise has to start.
package alarm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The settings document stores a single morning alarm as a 12-hour time with an
// "AM" suffix, e.g. "07:30 AM". The format is a compatibility contract with
// earlier firmware; both fields must survive round-trips byte-for-byte.
type Settings struct {
	Enabled bool
	Time    string // "HH:MM AM", empty when never set
}

type settingsWire struct {
	Enabled bool    `json:"enabled"`
	Time    *string `json:"time"`
}

// MarshalJSON writes the time field as null when no alarm was ever set,
// matching the document written by the original firmware.
func (s Settings) MarshalJSON() ([]byte, error) {
	w := settingsWire{Enabled: s.Enabled}
	if s.Time != "" {
		w.Time = &s.Time
	}
	return json.Marshal(w)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var w settingsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Enabled = w.Enabled
	if w.Time != nil {
		s.Time = *w.Time
	} else {
		s.Time = ""
	}
	return nil
}

// TimeOfDay is a 12-hour morning clock time. Hour runs 1..12 where 12 means
// midnight, as on any 12-hour clock face.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var (
	ErrInvalidHour   = errors.New("hour must be between 1 and 12")
	ErrInvalidMinute = errors.New("minute must be between 0 and 59")
	ErrBadTimeFormat = errors.New("time must look like \"HH:MM AM\"")
)

// NewTimeOfDay validates the pair.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 1 || hour > 12 {
		return TimeOfDay{}, ErrInvalidHour
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, ErrInvalidMinute
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseTime parses the stored "HH:MM AM" form.
func ParseTime(s string) (TimeOfDay, error) {
	trimmed := strings.TrimSuffix(s, " AM")
	if trimmed == s {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	return NewTimeOfDay(hour, minute)
}

// String renders the stored wire form, zero-padded.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d AM", t.Hour, t.Minute)
}

// Hour24 maps the 12-hour clock to 0..11 (12 AM is midnight).
func (t TimeOfDay) Hour24() int {
	return t.Hour % 12
}

// At anchors the time of day on d's calendar date, in d's location.
func (t TimeOfDay) At(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour24(), t.Minute, 0, 0, d.Location())
}

// wakeTime extracts the configured wake time, reporting false when the alarm is
// disabled, never set, or stored in an unreadable form.
func wakeTime(s Settings) (TimeOfDay, bool) {
	if !s.Enabled || s.Time == "" {
		return TimeOfDay{}, false
	}
	t, err := ParseTime(s.Time)
	if err != nil {
		return TimeOfDay{}, false
	}
	return t, true
}

// NextTrigger returns the next instant the sunrise has to start: lead before the
// next occurrence of the wake time, at or after now (minute granularity). The
// trigger may land on the previous calendar day when the wake time is shortly
// after midnight.
func NextTrigger(now time.Time, s Settings, lead time.Duration) (time.Time, bool) {
	wake, ok := wakeTime(s)
	if !ok {
		return time.Time{}, false
	}
	floor := now.Truncate(time.Minute)
	for day := -1; day <= 2; day++ {
		trigger := wake.At(now.AddDate(0, 0, day)).Add(-lead)
		if !trigger.Before(floor) {
			return trigger, true
		}
	}
	return time.Time{}, false
}

// Due reports whether a sunrise should start now. It matches the trigger on
// minute granularity and refuses to refire for a trigger instant equal to
// lastFired, so stopping the light early cannot re-arm it within the same
// minute.
func Due(now time.Time, s Settings, lead time.Duration, lastFired time.Time) (time.Time, bool) {
	wake, ok := wakeTime(s)
	if !ok {
		return time.Time{}, false
	}
	minute := now.Truncate(time.Minute)
	for day := -1; day <= 1; day++ {
		trigger := wake.At(now.AddDate(0, 0, day)).Add(-lead)
		if trigger.Truncate(time.Minute).Equal(minute) {
			if trigger.Equal(lastFired) {
				return time.Time{}, false
			}
			return trigger, true
		}
	}
	return time.Time{}, false
}
