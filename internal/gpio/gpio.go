// Package gpio provides digital output primitives with hardware abstraction.
// The real implementations drive pins through the Linux GPIO character device,
// periph.io or go-rpio register mapping.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"
	"strings"
)

// Level is a digital logic level.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// ParseLevel parses "low" or "high" (any case).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "high":
		return High, nil
	}
	return Low, fmt.Errorf("unexpected level %q, expected HIGH or LOW", s)
}

// Output drives digital output pins.
type Output interface {
	// SetOutput configures the pin as a digital output driving initial.
	// Backends that can set direction and level together do so, so the
	// pin never glitches through the other level.
	SetOutput(pin int, initial Level) error

	// Write drives the pin to the given level.
	Write(pin int, level Level) error

	// Close releases GPIO resources.
	Close() error
}

// Consumer is the label attached to lines requested from the kernel.
const Consumer = "relay-driver"
