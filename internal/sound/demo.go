package sound

import (
	"sync"

	"echotree.klederson.com/internal/log"
)

// LogOutput stands in for the synthesis engine in demo mode. Notes are
// logged at debug level and counted.
type LogOutput struct {
	mu    sync.Mutex
	notes uint64
}

func NewLogOutput() *LogOutput {
	log.Info("sound: demo output, notes are logged only")
	return &LogOutput{}
}

func (o *LogOutput) NoteOn(channel, key, velocity uint8) error {
	o.mu.Lock()
	o.notes++
	o.mu.Unlock()
	log.Debug("sound: note on", "ch", channel, "key", key, "vel", velocity)
	return nil
}

// Notes returns how many notes were sent.
func (o *LogOutput) Notes() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.notes
}

func (o *LogOutput) Close() error {
	return nil
}
