//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// ChipOutput is not available on non-Linux platforms.
type ChipOutput struct{}

// NewChipOutput returns an error on non-Linux platforms.
func NewChipOutput(chip string) (*ChipOutput, error) {
	return nil, errUnsupported
}

func (o *ChipOutput) SetOutput(pin int, initial Level) error { return errUnsupported }
func (o *ChipOutput) Write(pin int, level Level) error { return errUnsupported }
func (o *ChipOutput) Close() error { return nil }

// RPIOOutput is not available on non-Linux platforms.
type RPIOOutput struct{}

// NewRPIOOutput returns an error on non-Linux platforms.
func NewRPIOOutput() (*RPIOOutput, error) {
	return nil, errUnsupported
}

func (o *RPIOOutput) SetOutput(pin int, initial Level) error { return errUnsupported }
func (o *RPIOOutput) Write(pin int, level Level) error { return errUnsupported }
func (o *RPIOOutput) Close() error { return nil }
