// Package spishim adapts the simulated SPI master to the
// tinygo.org/x/drivers SPI interface, so device driver code written
// against that interface can run against the simulation.
package spishim

import (
	"fmt"

	"tinygo.org/x/drivers"

	"github.com/Kingkiri0986/uart-spi-controller/core"
)

// transferTimeout bounds the per-byte tick loop
const transferTimeout = 1_000_000

// Bus drives the controller's SPI master as a drivers.SPI
type Bus struct {
	ctrl *core.Controller
	mode core.SPIMode
}

var _ drivers.SPI = (*Bus)(nil)

// New wraps ctrl as a drivers.SPI using the given mode
func New(ctrl *core.Controller, mode core.SPIMode) *Bus {
	return &Bus{ctrl: ctrl, mode: mode}
}

// Transfer exchanges one byte, ticking the simulation until the
// transfer completes
func (b *Bus) Transfer(w byte) (byte, error) {
	spi := b.ctrl.Spi()
	if !spi.Start(uint32(w), b.mode.CPOL(), b.mode.CPHA()) {
		return 0, fmt.Errorf("spi busy")
	}
	for i := 0; i < transferTimeout; i++ {
		b.ctrl.Tick()
		if v, ok := spi.Poll(); ok {
			return byte(v), nil
		}
	}
	return 0, fmt.Errorf("spi transfer did not complete")
}

// Tx exchanges w and r byte-wise following the drivers.SPI contract:
// equal lengths exchange in lockstep, a nil r discards input, a nil w
// sends zero filler.
func (b *Bus) Tx(w, r []byte) error {
	switch {
	case len(w) == len(r):
		for i, tx := range w {
			rx, err := b.Transfer(tx)
			if err != nil {
				return err
			}
			if r != nil {
				r[i] = rx
			}
		}
	case r == nil:
		for _, tx := range w {
			if _, err := b.Transfer(tx); err != nil {
				return err
			}
		}
	case w == nil:
		for i := range r {
			rx, err := b.Transfer(0)
			if err != nil {
				return err
			}
			r[i] = rx
		}
	default:
		return fmt.Errorf("mismatched buffer lengths: %d vs %d", len(w), len(r))
	}
	return nil
}
