//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// ChipOutput drives pins through the Linux GPIO character device.
type ChipOutput struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewChipOutput opens the named GPIO chip (e.g. "gpiochip0").
func NewChipOutput(chip string) (*ChipOutput, error) {
	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &ChipOutput{
		chip:  c,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

// SetOutput requests the line as an output at the initial level, or
// reconfigures it if this ChipOutput already holds it.
func (o *ChipOutput) SetOutput(pin int, initial Level) error {
	if l, ok := o.lines[pin]; ok {
		if err := l.Reconfigure(gpiocdev.AsOutput(int(initial))); err != nil {
			return fmt.Errorf("reconfigure line %d: %w", pin, err)
		}
		return nil
	}

	l, err := o.chip.RequestLine(pin, gpiocdev.AsOutput(int(initial)))
	if err != nil {
		return fmt.Errorf("request line %d: %w", pin, err)
	}
	o.lines[pin] = l
	return nil
}

// Write sets the line value. The line must have been configured with SetOutput.
func (o *ChipOutput) Write(pin int, level Level) error {
	l, ok := o.lines[pin]
	if !ok {
		return fmt.Errorf("line %d not requested as output", pin)
	}
	if err := l.SetValue(int(level)); err != nil {
		return fmt.Errorf("set line %d: %w", pin, err)
	}
	return nil
}

// Close releases all requested lines and the chip.
// Lines are released without reconfiguring them so a relay keeps its last
// level until the kernel reclaims the line.
func (o *ChipOutput) Close() error {
	var errs []error

	for pin, l := range o.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", pin, err))
		}
	}
	o.lines = map[int]*gpiocdev.Line{}

	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
