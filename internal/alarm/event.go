package alarm

import "time"

// Event kinds recorded in the history store.
const (
	EventSet              = "alarm_set"
	EventDisabled         = "alarm_disabled"
	EventTriggered        = "alarm_triggered"
	EventSunriseCompleted = "sunrise_completed"
	EventSunriseStopped   = "sunrise_stopped"
)

// Sources identify which surface performed an operation.
const (
	SourceWeb    = "web"
	SourceCLI    = "cli"
	SourceButton = "button"
	SourceDaemon = "daemon"
)

// Event is one entry in the alarm history.
type Event struct {
	ID     int64     `json:"id"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}
