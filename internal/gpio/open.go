package gpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Backend names accepted by Open.
const (
	BackendChip   = "gpiocdev"
	BackendPeriph = "periph"
	BackendRPIO   = "rpio"
	BackendDryRun = "dryrun"
)

// Backends lists the names accepted by Open.
var Backends = []string{BackendChip, BackendPeriph, BackendRPIO, BackendDryRun}

// Open returns the named backend. chip is only used by the gpiocdev backend;
// logger is only used by the dryrun backend.
func Open(backend, chip string, logger *log.Logger) (Output, error) {
	var (
		out Output
		err error
	)

	// A failed open must return a nil Output, not a typed nil pointer.
	switch backend {
	case BackendChip:
		var o *ChipOutput
		if o, err = NewChipOutput(chip); err == nil {
			out = o
		}
	case BackendPeriph:
		var o *PeriphOutput
		if o, err = NewPeriphOutput(); err == nil {
			out = o
		}
	case BackendRPIO:
		var o *RPIOOutput
		if o, err = NewRPIOOutput(); err == nil {
			out = o
		}
	case BackendDryRun:
		out = NewDryRunOutput(logger)
	default:
		return nil, fmt.Errorf("unknown gpio backend %q (valid: %v)", backend, Backends)
	}

	if err != nil {
		return nil, err
	}
	return out, nil
}
