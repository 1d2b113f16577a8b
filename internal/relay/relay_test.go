package relay

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/relay-driver/internal/gpio"
)

func newFakeRelay(t *testing.T, pin int, transistor bool, opts ...Option) (*Relay, *gpio.FakeOutput) {
	t.Helper()
	f := gpio.NewFakeOutput()
	opts = append([]Option{WithSleep(f.Sleep)}, opts...)
	if transistor {
		return NewTransistor(pin, f, opts...), f
	}
	return New(pin, f, opts...), f
}

func TestPolarityLevels(t *testing.T) {
	r, _ := newFakeRelay(t, 7, false)
	assert.Equal(t, gpio.Low, r.Polarity().On)
	assert.Equal(t, gpio.High, r.Polarity().Off)
	assert.Equal(t, KindRelay, r.Polarity().Kind)

	tr, _ := newFakeRelay(t, 7, true)
	assert.Equal(t, gpio.High, tr.Polarity().On)
	assert.Equal(t, gpio.Low, tr.Polarity().Off)
	assert.Equal(t, KindTransistor, tr.Polarity().Kind)
}

func TestOnDiffersFromOff(t *testing.T) {
	for _, p := range []Polarity{RelayPolarity, TransistorPolarity} {
		r := NewWithPolarity(1, p, gpio.NewFakeOutput())
		assert.NotEqual(t, r.Polarity().On, r.Polarity().Off, "kind %s", p.Kind)
	}
}

func TestNewWithPolarityPanicsOnEqualLevels(t *testing.T) {
	assert.Panics(t, func() {
		NewWithPolarity(1, Polarity{On: gpio.High, Off: gpio.High}, gpio.NewFakeOutput())
	})
}

func TestDefaults(t *testing.T) {
	r, _ := newFakeRelay(t, 4, false)
	assert.Equal(t, 4, r.Pin())
	assert.Equal(t, DefaultToggleDuration, r.ToggleDuration())
	assert.Equal(t, 500*time.Millisecond, r.ToggleDuration())
	assert.Equal(t, StateUnknown, r.State())
}

func TestSetupWritesOffOnce(t *testing.T) {
	for _, transistor := range []bool{false, true} {
		r, f := newFakeRelay(t, 5, transistor)
		require.NoError(t, r.Setup())

		assert.Equal(t, []gpio.Op{
			{Kind: gpio.OpSetOutput, Pin: 5, Level: r.Polarity().Off},
			{Kind: gpio.OpWrite, Pin: 5, Level: r.Polarity().Off},
		}, f.Ops)
		assert.Equal(t, StateDeenergized, r.State())
	}
}

func TestSwitchWritesEveryCall(t *testing.T) {
	r, f := newFakeRelay(t, 2, false)

	require.NoError(t, r.Switch(true))
	assert.Equal(t, []gpio.PinWrite{{Pin: 2, Level: gpio.Low}}, f.Writes())
	assert.Equal(t, StateEnergized, r.State())

	f.Reset()
	require.NoError(t, r.Switch(false))
	assert.Equal(t, []gpio.PinWrite{{Pin: 2, Level: gpio.High}}, f.Writes())
	assert.Equal(t, StateDeenergized, r.State())

	f.Reset()
	require.NoError(t, r.Switch(true))
	require.NoError(t, r.Switch(true))
	assert.Len(t, f.Writes(), 2, "identical calls are not deduplicated")
}

func TestToggleSequence(t *testing.T) {
	r, f := newFakeRelay(t, 9, true)

	require.NoError(t, r.Toggle())

	assert.Equal(t, []gpio.Op{
		{Kind: gpio.OpWrite, Pin: 9, Level: gpio.High},
		{Kind: gpio.OpDelay, Delay: DefaultToggleDuration},
		{Kind: gpio.OpWrite, Pin: 9, Level: gpio.Low},
	}, f.Ops)
	assert.Equal(t, StateDeenergized, r.State())
}

func TestToggleDurationChange(t *testing.T) {
	r, f := newFakeRelay(t, 3, false)

	r.SetToggleDuration(1000 * time.Millisecond)
	require.NoError(t, r.Toggle())
	assert.Equal(t, []time.Duration{time.Second}, f.Delays())

	f.Reset()
	r.SetToggleDuration(0)
	require.NoError(t, r.Toggle())
	assert.Equal(t, []time.Duration{0}, f.Delays())

	f.Reset()
	r.SetToggleDuration(-5 * time.Millisecond)
	require.NoError(t, r.Toggle())
	assert.Equal(t, []time.Duration{-5 * time.Millisecond}, f.Delays(), "negative durations pass through")
}

func TestEndToEnd(t *testing.T) {
	r, f := newFakeRelay(t, 7, false)

	require.NoError(t, r.Setup())
	assert.Equal(t, []gpio.PinWrite{{Pin: 7, Level: gpio.High}}, f.Writes())

	require.NoError(t, r.Toggle())
	assert.Equal(t, []gpio.PinWrite{
		{Pin: 7, Level: gpio.High},
		{Pin: 7, Level: gpio.Low},
		{Pin: 7, Level: gpio.High},
	}, f.Writes())
	assert.Equal(t, gpio.Op{Kind: gpio.OpDelay, Delay: 500 * time.Millisecond}, f.Ops[3])
	assert.Equal(t, StateDeenergized, r.State())
}

func TestSetupError(t *testing.T) {
	r, f := newFakeRelay(t, 7, false)
	f.SetOutputError = errors.New("line busy")

	err := r.Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay pin 7")
	assert.Contains(t, err.Error(), "line busy")
	assert.Empty(t, f.Writes())
	assert.Equal(t, StateUnknown, r.State())
}

func TestWriteErrorKeepsState(t *testing.T) {
	r, f := newFakeRelay(t, 7, false)
	require.NoError(t, r.Setup())

	sentinel := errors.New("simulated error")
	f.WriteError = sentinel

	err := r.Switch(true)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, StateDeenergized, r.State())
}

func TestToggleFirstWriteErrorSkipsDelay(t *testing.T) {
	r, f := newFakeRelay(t, 7, false)
	f.WriteError = errors.New("simulated error")

	require.Error(t, r.Toggle())
	assert.Empty(t, f.Delays())
}

func TestObserverEvents(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var events []Event
	r, _ := newFakeRelay(t, 7, false,
		WithClock(func() time.Time { return now }),
		WithObserver(func(e Event) { events = append(events, e) }),
	)

	require.NoError(t, r.Setup())
	require.NoError(t, r.Switch(true))
	require.NoError(t, r.Toggle())

	want := []Event{
		{Timestamp: now, Pin: 7, Level: gpio.High, State: StateDeenergized, Cause: CauseSetup},
		{Timestamp: now, Pin: 7, Level: gpio.Low, State: StateEnergized, Cause: CauseSwitch},
		{Timestamp: now, Pin: 7, Level: gpio.Low, State: StateEnergized, Cause: CauseToggle},
		{Timestamp: now, Pin: 7, Level: gpio.High, State: StateDeenergized, Cause: CauseToggle},
	}
	assert.Equal(t, want, events)
}

func TestObserverNotCalledOnError(t *testing.T) {
	calls := 0
	f := gpio.NewFakeOutput()
	f.WriteError = errors.New("simulated error")
	r := New(1, f, WithObserver(func(Event) { calls++ }))

	require.Error(t, r.Switch(false))
	assert.Zero(t, calls)
}

func TestSwitchWaitsForToggle(t *testing.T) {
	f := gpio.NewFakeOutput()
	inPulse := make(chan struct{})
	release := make(chan struct{})
	r := New(1, f, WithSleep(func(d time.Duration) {
		f.Sleep(d)
		close(inPulse)
		<-release
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Toggle())
	}()
	<-inPulse

	switched := make(chan struct{})
	go func() {
		assert.NoError(t, r.Switch(true))
		close(switched)
	}()

	select {
	case <-switched:
		t.Fatal("Switch completed while Toggle held the relay")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-switched

	assert.Equal(t, []gpio.PinWrite{
		{Pin: 1, Level: gpio.Low},
		{Pin: 1, Level: gpio.High},
		{Pin: 1, Level: gpio.Low},
	}, f.Writes())
	assert.Equal(t, StateEnergized, r.State())
}

func TestSetupConfiguresAtOffLevel(t *testing.T) {
	r, f := newFakeRelay(t, 7, false)
	require.NoError(t, r.Setup())

	// The pin must never be configured at the active-low on level.
	require.NotEmpty(t, f.Ops)
	assert.Equal(t, gpio.Op{Kind: gpio.OpSetOutput, Pin: 7, Level: gpio.High}, f.Ops[0])
}

func TestToggleDurationReadableDuringPulse(t *testing.T) {
	f := gpio.NewFakeOutput()
	inPulse := make(chan struct{})
	release := make(chan struct{})
	r := New(1, f, WithSleep(func(d time.Duration) {
		f.Sleep(d)
		close(inPulse)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, r.Toggle())
	}()
	<-inPulse

	read := make(chan time.Duration, 1)
	go func() {
		r.SetToggleDuration(2 * time.Second)
		read <- r.ToggleDuration()
	}()

	select {
	case d := <-read:
		assert.Equal(t, 2*time.Second, d)
	case <-time.After(time.Second):
		t.Fatal("ToggleDuration blocked on a pulse in progress")
	}

	close(release)
	<-done
	assert.Equal(t, []time.Duration{DefaultToggleDuration}, f.Delays(), "pulse in progress keeps its width")
}

func TestPolarityWithOff(t *testing.T) {
	inv := RelayPolarity.WithOff(gpio.Low)
	assert.Equal(t, Polarity{Kind: KindRelay, On: gpio.High, Off: gpio.Low}, inv)
	assert.Equal(t, RelayPolarity, RelayPolarity.WithOff(gpio.High))
	assert.Equal(t, Polarity{Kind: KindTransistor, On: gpio.Low, Off: gpio.High}, TransistorPolarity.WithOff(gpio.High))

	r := NewWithPolarity(3, inv, gpio.NewFakeOutput())
	assert.NotEqual(t, r.Polarity().On, r.Polarity().Off)
}

func TestPolarityFor(t *testing.T) {
	p, err := PolarityFor("relay")
	require.NoError(t, err)
	assert.Equal(t, RelayPolarity, p)

	p, err = PolarityFor("transistor")
	require.NoError(t, err)
	assert.Equal(t, TransistorPolarity, p)

	_, err = PolarityFor("solenoid")
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "UNKNOWN", StateUnknown.String())
	assert.Equal(t, "ENERGIZED", StateEnergized.String())
	assert.Equal(t, "DE-ENERGIZED", StateDeenergized.String())
}
