package relay

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/relay-driver/internal/gpio"
)

// Relay owns one output pin and drives it between the on and off levels of
// its polarity. All methods are safe for concurrent use; Toggle holds the
// relay for the whole pulse.
type Relay struct {
	pin      int
	polarity Polarity
	out      gpio.Output

	sleep    func(time.Duration)
	now      func() time.Time
	observer func(Event)

	toggleDuration atomic.Int64

	mu    sync.Mutex
	state State
}

// Option configures a Relay.
type Option func(*Relay)

// WithSleep sets the blocking delay used by Toggle. Defaults to time.Sleep.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Relay) { r.sleep = sleep }
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// WithObserver registers a callback invoked after every successful write.
// It runs with the relay locked and must not call back into the relay.
func WithObserver(fn func(Event)) Option {
	return func(r *Relay) { r.observer = fn }
}

// New returns an active-low relay module on pin.
func New(pin int, out gpio.Output, opts ...Option) *Relay {
	return NewWithPolarity(pin, RelayPolarity, out, opts...)
}

// NewTransistor returns an active-high transistor switch on pin.
func NewTransistor(pin int, out gpio.Output, opts ...Option) *Relay {
	return NewWithPolarity(pin, TransistorPolarity, out, opts...)
}

// NewWithPolarity returns a relay on pin using the given levels.
// It panics if p.On equals p.Off.
func NewWithPolarity(pin int, p Polarity, out gpio.Output, opts ...Option) *Relay {
	if p.On == p.Off {
		panic(fmt.Sprintf("relay: on and off levels are both %s", p.On))
	}

	r := &Relay{
		pin:      pin,
		polarity: p,
		out:      out,
		sleep:    time.Sleep,
		now:      time.Now,
	}
	r.toggleDuration.Store(int64(DefaultToggleDuration))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pin returns the output pin.
func (r *Relay) Pin() int { return r.pin }

// Polarity returns the on/off levels.
func (r *Relay) Polarity() Polarity { return r.polarity }

// State returns the state produced by the last successful write.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ToggleDuration returns the pulse width used by Toggle. It does not wait
// for a pulse in progress.
func (r *Relay) ToggleDuration() time.Duration {
	return time.Duration(r.toggleDuration.Load())
}

// SetToggleDuration changes the pulse width for subsequent toggles.
// A pulse already in progress keeps its width. The value is not validated.
func (r *Relay) SetToggleDuration(d time.Duration) {
	r.toggleDuration.Store(int64(d))
}

// Setup configures the pin as an output and drives it to the off level.
// The pin is configured with off as its initial level, so backends that
// support it never pass through on.
func (r *Relay) Setup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.out.SetOutput(r.pin, r.polarity.Off); err != nil {
		return fmt.Errorf("relay pin %d: set output: %w", r.pin, err)
	}
	return r.write(false, CauseSetup)
}

// Switch energizes the load if on is true and de-energizes it otherwise.
// Every call writes the pin, even if the state is unchanged.
func (r *Relay) Switch(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(on, CauseSwitch)
}

// Toggle energizes the load, blocks for the toggle duration, then
// de-energizes it. It cannot be interrupted once started.
func (r *Relay) Toggle() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.ToggleDuration()
	if err := r.write(true, CauseToggle); err != nil {
		return err
	}
	r.sleep(d)
	return r.write(false, CauseToggle)
}

// write must be called with r.mu held.
func (r *Relay) write(on bool, cause Cause) error {
	level, state := r.polarity.Off, StateDeenergized
	if on {
		level, state = r.polarity.On, StateEnergized
	}

	if err := r.out.Write(r.pin, level); err != nil {
		return fmt.Errorf("relay pin %d: write %s: %w", r.pin, level, err)
	}
	r.state = state

	if r.observer != nil {
		r.observer(Event{
			Timestamp: r.now(),
			Pin:       r.pin,
			Level:     level,
			State:     state,
			Cause:     cause,
		})
	}
	return nil
}
