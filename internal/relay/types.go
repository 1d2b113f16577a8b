// Package relay drives a relay module or a transistor-switched load from a
// single digital output pin.
//
// The two variants differ only in which logic level energizes the load:
// relay modules are active-low, transistor switches are active-high.
package relay

import (
	"fmt"
	"time"

	"github.com/sweeney/relay-driver/internal/gpio"
)

const (
	RelayOn  = gpio.Low
	RelayOff = gpio.High

	TransistorOn  = gpio.High
	TransistorOff = gpio.Low
)

// DefaultToggleDuration is the pulse width used by Toggle unless changed.
const DefaultToggleDuration = 500 * time.Millisecond

// Kind names a polarity configuration.
type Kind string

const (
	KindRelay      Kind = "relay"
	KindTransistor Kind = "transistor"
)

// Polarity is the pair of levels that energize and de-energize the load.
type Polarity struct {
	Kind Kind
	On   gpio.Level
	Off  gpio.Level
}

var (
	// RelayPolarity is for relay boards whose input is pulled low to energize the coil.
	RelayPolarity = Polarity{Kind: KindRelay, On: RelayOn, Off: RelayOff}

	// TransistorPolarity is for loads switched by a transistor gate or base.
	TransistorPolarity = Polarity{Kind: KindTransistor, On: TransistorOn, Off: TransistorOff}
)

// PolarityFor returns the polarity for a kind name.
func PolarityFor(kind string) (Polarity, error) {
	switch Kind(kind) {
	case KindRelay:
		return RelayPolarity, nil
	case KindTransistor:
		return TransistorPolarity, nil
	}
	return Polarity{}, fmt.Errorf("unknown relay kind %q (valid: %s, %s)", kind, KindRelay, KindTransistor)
}

// WithOff returns p with off as its de-energized level and the opposite
// level as on. Boards wired the other way round use it to invert a kind.
func (p Polarity) WithOff(off gpio.Level) Polarity {
	on := gpio.High
	if off == gpio.High {
		on = gpio.Low
	}
	return Polarity{Kind: p.Kind, On: on, Off: off}
}

// State is the logical state of the load.
type State string

const (
	StateUnknown     State = ""
	StateEnergized   State = "ENERGIZED"
	StateDeenergized State = "DE-ENERGIZED"
)

func (s State) String() string {
	if s == StateUnknown {
		return "UNKNOWN"
	}
	return string(s)
}

// Cause is the operation that produced a write.
type Cause string

const (
	CauseSetup  Cause = "setup"
	CauseSwitch Cause = "switch"
	CauseToggle Cause = "toggle"
)

// Event describes one successful pin write.
type Event struct {
	Timestamp time.Time
	Pin       int
	Level     gpio.Level
	State     State
	Cause     Cause
}
