package gpio

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// DryRunOutput logs every primitive call instead of touching hardware.
type DryRunOutput struct {
	log *log.Entry

	mu     sync.Mutex
	levels map[int]Level
}

// NewDryRunOutput creates a DryRunOutput logging through logger.
func NewDryRunOutput(logger *log.Logger) *DryRunOutput {
	return &DryRunOutput{
		log:    logger.WithField("backend", "dryrun"),
		levels: make(map[int]Level),
	}
}

// SetOutput logs the direction change and remembers the initial level.
func (o *DryRunOutput) SetOutput(pin int, initial Level) error {
	o.mu.Lock()
	o.levels[pin] = initial
	o.mu.Unlock()
	o.log.WithFields(log.Fields{"pin": pin, "value": initial}).Info("direction --> OUT")
	return nil
}

// Write logs the level and remembers it.
func (o *DryRunOutput) Write(pin int, level Level) error {
	o.mu.Lock()
	o.levels[pin] = level
	o.mu.Unlock()
	o.log.WithFields(log.Fields{"pin": pin, "value": level}).Info("set output")
	return nil
}

// Level returns the last level driven on pin.
func (o *DryRunOutput) Level(pin int) (Level, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.levels[pin]
	return l, ok
}

// Close logs and does nothing else.
func (o *DryRunOutput) Close() error {
	o.log.Debug("closed")
	return nil
}
