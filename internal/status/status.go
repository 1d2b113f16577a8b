// Package status provides a thread-safe status tracker for the relay-driver daemon.
// It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/relay-driver/internal/gpio"
	"github.com/sweeney/relay-driver/internal/relay"
)

// Config contains daemon configuration for display.
type Config struct {
	Backend     string
	Chip        string
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Relay identifies the relay being driven.
type Relay struct {
	Pin      int
	Kind     relay.Kind
	OnLevel  gpio.Level
	OffLevel gpio.Level
}

// Counts tracks relay operations since startup.
type Counts struct {
	Writes    int
	SwitchOn  int
	SwitchOff int
	Toggles   int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and stays valid after the lock is released.
type Snapshot struct {
	Relay          Relay
	State          relay.State
	Level          gpio.Level
	LastChange     time.Time
	ToggleDuration time.Duration
	Counts         Counts
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// ToggleSource reports the current toggle pulse width. *relay.Relay
// implements it.
type ToggleSource interface {
	ToggleDuration() time.Duration
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithToggleSource makes snapshots report src's toggle duration.
// src is called without the tracker lock held.
func WithToggleSource(src ToggleSource) TrackerOption {
	return func(t *Tracker) { t.toggle = src }
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	toggle ToggleSource

	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker for the given relay.
func NewTracker(startTime time.Time, r Relay, cfg Config, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		snap: Snapshot{
			Relay:     r,
			StartTime: startTime,
			Config:    cfg,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record applies a relay write event.
// A toggle is counted once, on its energizing write.
func (t *Tracker) Record(e relay.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.State = e.State
	t.snap.Level = e.Level
	t.snap.LastChange = e.Timestamp
	t.snap.Counts.Writes++

	switch e.Cause {
	case relay.CauseSwitch:
		if e.State == relay.StateEnergized {
			t.snap.Counts.SwitchOn++
		} else {
			t.snap.Counts.SwitchOff++
		}
	case relay.CauseToggle:
		if e.State == relay.StateEnergized {
			t.snap.Counts.Toggles++
		}
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if t.toggle != nil {
		s.ToggleDuration = t.toggle.ToggleDuration()
	}
	s.Now = time.Now()
	return s
}
