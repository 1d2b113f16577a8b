package gpio

import "time"

// OpKind identifies a recorded FakeOutput operation.
type OpKind string

const (
	OpSetOutput OpKind = "set-output"
	OpWrite     OpKind = "write"
	OpDelay     OpKind = "delay"
)

// Op is a single recorded primitive call.
type Op struct {
	Kind  OpKind
	Pin   int
	Level Level
	Delay time.Duration
}

// PinWrite is a (pin, level) pair written to the fake.
type PinWrite struct {
	Pin   int
	Level Level
}

// FakeOutput is a test double that records every primitive call in order.
// Its Sleep method records simulated delays in the same log, so a relay
// built with WithSleep(fake.Sleep) produces a complete timeline.
type FakeOutput struct {
	// Ops contains every operation in call order.
	Ops []Op

	// SetOutputError, if set, will be returned by SetOutput.
	SetOutputError error

	// WriteError, if set, will be returned by Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// SetOutput records the pin configuration and its initial level.
func (f *FakeOutput) SetOutput(pin int, initial Level) error {
	if f.SetOutputError != nil {
		return f.SetOutputError
	}
	f.Ops = append(f.Ops, Op{Kind: OpSetOutput, Pin: pin, Level: initial})
	return nil
}

// Write records the level written.
func (f *FakeOutput) Write(pin int, level Level) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Ops = append(f.Ops, Op{Kind: OpWrite, Pin: pin, Level: level})
	return nil
}

// Sleep records a simulated delay without blocking.
func (f *FakeOutput) Sleep(d time.Duration) {
	f.Ops = append(f.Ops, Op{Kind: OpDelay, Delay: d})
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// Writes returns only the recorded writes, in order.
func (f *FakeOutput) Writes() []PinWrite {
	var out []PinWrite
	for _, op := range f.Ops {
		if op.Kind == OpWrite {
			out = append(out, PinWrite{Pin: op.Pin, Level: op.Level})
		}
	}
	return out
}

// Delays returns only the recorded delays, in order.
func (f *FakeOutput) Delays() []time.Duration {
	var out []time.Duration
	for _, op := range f.Ops {
		if op.Kind == OpDelay {
			out = append(out, op.Delay)
		}
	}
	return out
}

// Reset clears recorded operations and injected errors.
func (f *FakeOutput) Reset() {
	f.Ops = nil
	f.SetOutputError = nil
	f.WriteError = nil
	f.Closed = false
}
