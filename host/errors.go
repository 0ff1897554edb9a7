package host

import (
	"errors"
)

// ErrLedgerCloseMetaOverridden signals a second attempt to set the input
// payload on a Host whose input has already been set.
var ErrLedgerCloseMetaOverridden = errors.New("host: ledger close meta already set")

// ErrNoLedgerCloseMeta signals a read of the input payload before it has
// been set.
var ErrNoLedgerCloseMeta = errors.New("host: no ledger close meta set")

// ErrNoEntryPointExport signals that the requested exported function is
// absent from the guest module.
var ErrNoEntryPointExport = errors.New("host: entry point export not found")

// ErrExternNotAFunction signals that the requested export exists but is
// not a function.
var ErrExternNotAFunction = errors.New("host: export exists but is not a function")

// ErrNoMemoryExport signals that the guest module does not export
// "memory".
var ErrNoMemoryExport = errors.New("host: module has no memory export")
