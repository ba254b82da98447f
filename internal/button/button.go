// Package button abstracts the momentary push button. Implementations hide the
// active-low wiring: Pressed reports true while the button is physically held.
package button

// Input is the button port.
type Input interface {
	Pressed() (bool, error)
	Close() error
}
