package app

import "time"

// TickMsg triggers a frame update.
type TickMsg time.Time

// FailedMsg reports a fatal error from outside the monitor; the monitor
// shows it and quits.
type FailedMsg struct {
	Err error
}
