// Package budget installs the per-invocation fuel limit on a wasmtime store.
package budget

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v14"
)

// StandardFuel is the default fuel quantity installed when a caller does
// not override it.
const StandardFuel uint64 = 1_000_000_000

// StandardWriteMax bounds the size, in bytes, of a single database write
// blob accepted by the database sub-host.
const StandardWriteMax = 64_000

// Budget holds the fuel quantity to install on a freshly created store.
// Installation happens exactly once, before the guest's first instruction;
// there is no runtime top-up.
type Budget struct {
	fuel uint64
}

// New returns a Budget configured with fuel. A fuel of 0 is valid and
// causes the guest's first instruction to trap immediately.
func New(fuel uint64) *Budget {
	return &Budget{fuel: fuel}
}

// Standard returns a Budget using StandardFuel.
func Standard() *Budget {
	return New(StandardFuel)
}

// Install sets the store's fuel meter to the configured maximum. The
// caller's engine Config must have called SetConsumeFuel(true), or this
// fails.
func (b *Budget) Install(store *wasmtime.Store) error {
	if err := store.SetFuel(b.fuel); err != nil {
		return fmt.Errorf("budget: install fuel: %w", err)
	}
	return nil
}

// Fuel returns the configured fuel quantity.
func (b *Budget) Fuel() uint64 {
	return b.fuel
}
