//go:build linux

package gpio

import (
	"fmt"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// RPIOOutput drives Raspberry Pi pins through memory-mapped registers.
type RPIOOutput struct{}

// NewRPIOOutput maps the GPIO register block.
func NewRPIOOutput() (*RPIOOutput, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open rpio: %w", err)
	}
	return &RPIOOutput{}, nil
}

// SetOutput loads the output latch with initial, then sets the direction
// register to output.
func (o *RPIOOutput) SetOutput(pin int, initial Level) error {
	p := rpio.Pin(pin)
	p.Write(rpio.State(initial))
	p.Output()
	return nil
}

// Write drives the pin level.
func (o *RPIOOutput) Write(pin int, level Level) error {
	rpio.Pin(pin).Write(rpio.State(level))
	return nil
}

// Close unmaps the register block.
func (o *RPIOOutput) Close() error {
	return rpio.Close()
}
