package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphOutput drives pins through the periph.io host drivers.
// Pins are addressed by BCM number and looked up as "GPIO<n>".
type PeriphOutput struct {
	pins map[int]pgpio.PinIO
}

// NewPeriphOutput initialises the periph.io host.
func NewPeriphOutput() (*PeriphOutput, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	return &PeriphOutput{pins: make(map[int]pgpio.PinIO)}, nil
}

// SetOutput resolves the pin from the registry and drives it at initial.
// periph sets direction and level in one call.
func (o *PeriphOutput) SetOutput(pin int, initial Level) error {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return fmt.Errorf("failed to find pin GPIO%d", pin)
	}
	if err := p.Out(pgpio.Level(initial == High)); err != nil {
		return fmt.Errorf("set GPIO%d as output: %w", pin, err)
	}
	o.pins[pin] = p
	return nil
}

// Write drives the pin as an output at the given level.
func (o *PeriphOutput) Write(pin int, level Level) error {
	p, ok := o.pins[pin]
	if !ok {
		return fmt.Errorf("pin GPIO%d not configured as output", pin)
	}
	if err := p.Out(pgpio.Level(level == High)); err != nil {
		return fmt.Errorf("set GPIO%d: %w", pin, err)
	}
	return nil
}

// Close halts every pin this output has touched.
func (o *PeriphOutput) Close() error {
	var errs []error
	for pin, p := range o.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt GPIO%d: %w", pin, err))
		}
	}
	o.pins = map[int]pgpio.PinIO{}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
