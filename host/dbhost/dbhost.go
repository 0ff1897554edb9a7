// Package dbhost implements the database sub-host: translation of guest
// pseudo-stack instructions into calls on a pluggable database backend,
// keyed by a per-tenant, per-table-symbol digest.
package dbhost

import (
	"crypto/md5" //nolint:gosec // table digest is pinned to MD5 by contract, not used for security.
	"errors"
	"fmt"

	"github.com/xycloo/zephyr-vm-go/codec"
	"github.com/xycloo/zephyr-vm-go/host/budget"
	"github.com/xycloo/zephyr-vm-go/host/memmanager"
	"github.com/xycloo/zephyr-vm-go/host/pseudostack"
	"github.com/xycloo/zephyr-vm-go/host/status"
	"github.com/xycloo/zephyr-vm-go/symbol"

	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("host/dbhost")

// Permissions controls which operations a Host is allowed to perform
// against its database.
type Permissions int

const (
	ReadOnly Permissions = iota
	WriteOnly
	ReadWrite
)

// Operator is a predicate comparison operator used by the update/read ABI.
type Operator int64

const (
	OpEqual Operator = 0
	OpGT    Operator = 1
	OpLT    Operator = 2
)

// ErrUnknownOperator signals an operator code outside {0,1,2}.
var ErrUnknownOperator = errors.New("dbhost: unknown predicate operator")

// Predicate is a single equality/inequality condition: column OP value.
type Predicate struct {
	Column   int64
	Operator Operator
	Value    []byte
}

// Row is a single write/update payload: N column symbols with N value blobs.
type Row struct {
	Columns []int64
	Values  [][]byte
}

// Backend is the pluggable storage interface. The default production
// implementation is backed by Postgres (see dbhost/postgres.go); tests use
// an in-memory fake.
type Backend interface {
	Write(tenant int64, tableDigest [16]byte, row Row) error
	Update(tenant int64, tableDigest [16]byte, row Row, preds []Predicate) error
	// Read returns an opaque, already-serialized byte string representing
	// the matched rows.
	Read(tenant int64, tableDigest [16]byte, columns []int64, preds []Predicate) ([]byte, error)
}

// Host is the database sub-host attached to a single VM invocation.
type Host struct {
	tenant      int64
	permissions Permissions
	backend     Backend
	stack       *pseudostack.PseudoStack
	mem         *memmanager.Manager
}

// New returns a database sub-host bound to tenant, with the given
// permissions, backend, pseudo-stack and memory manager (both shared with
// the rest of the Host State).
func New(tenant int64, perms Permissions, backend Backend, stack *pseudostack.PseudoStack, mem *memmanager.Manager) *Host {
	return &Host{
		tenant:      tenant,
		permissions: perms,
		backend:     backend,
		stack:       stack,
		mem:         mem,
	}
}

// TableDigest computes MD5(i64le(tableSymbol) || i64le(tenant)).
func TableDigest(tableSymbol, tenant int64) [16]byte {
	h := md5.New() //nolint:gosec
	h.Write(codec.I64LE(tableSymbol))
	h.Write(codec.I64LE(tenant))
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// WriteRaw implements the write_raw host call. The pseudo-stack must carry,
// in order: table_symbol, N_cols, N_cols x column_symbol, N_segments,
// N_segments x (offset, length). The stack is always cleared before
// returning, on every path.
func (h *Host) WriteRaw() status.Status {
	defer h.stack.Clear()

	if h.permissions == ReadOnly {
		return status.WriteOnReadOnly
	}

	tableSymbol, row, err := h.readTableAndRow()
	if err != nil {
		log.Debug("write_raw: malformed stack", "error", err)
		return status.ZephyrQueryMalformed
	}

	digest := TableDigest(tableSymbol, h.tenant)
	if err := h.backend.Write(h.tenant, digest, row); err != nil {
		log.Warn("write_raw: backend error", "error", err)
		return status.WriteError
	}

	return status.OK
}

// UpdateRaw implements the update_raw host call: as WriteRaw, followed by
// N_conds, N_conds x (column_symbol, operator), N_cond_args, N_cond_args x
// (offset, length).
func (h *Host) UpdateRaw() status.Status {
	defer h.stack.Clear()

	if h.permissions == ReadOnly {
		return status.WriteOnReadOnly
	}

	tableSymbol, row, err := h.readTableAndRow()
	if err != nil {
		log.Debug("update_raw: malformed row", "error", err)
		return status.ZephyrQueryMalformed
	}

	preds, err := h.readPredicates()
	if err != nil {
		if errors.Is(err, ErrUnknownOperator) {
			return status.OperatorError
		}
		log.Debug("update_raw: malformed predicates", "error", err)
		return status.ZephyrQueryMalformed
	}

	digest := TableDigest(tableSymbol, h.tenant)
	if err := h.backend.Update(h.tenant, digest, row, preds); err != nil {
		log.Warn("update_raw: backend error", "error", err)
		return status.WriteError
	}

	return status.OK
}

// ReadRaw implements the read_raw host call. It pushes table_symbol,
// N_cols, column symbols, then optionally N_conds + predicates. The
// optional section is detected by whether the next pop succeeds (see
// DESIGN.md Open Question 1). On success it returns (offsetAfter, length)
// per the standard write-back convention.
func (h *Host) ReadRaw() (off, length int64, st status.Status) {
	defer h.stack.Clear()

	if h.permissions == WriteOnly {
		return 0, 0, status.ReadOnWriteOnly
	}

	tableSymbol, columns, err := h.readTableAndColumns()
	if err != nil {
		log.Debug("read_raw: malformed stack", "error", err)
		return 0, 0, status.ZephyrQueryMalformed
	}

	preds, ok, err := h.tryReadPredicates()
	if err != nil {
		if errors.Is(err, ErrUnknownOperator) {
			return 0, 0, status.OperatorError
		}
		return 0, 0, status.ZephyrQueryMalformed
	}
	if !ok {
		preds = nil
	}

	digest := TableDigest(tableSymbol, h.tenant)
	result, err := h.backend.Read(h.tenant, digest, columns, preds)
	if err != nil {
		log.Warn("read_raw: backend error", "error", err)
		return 0, 0, status.ZephyrQueryError
	}

	offAfter, n, err := h.mem.Write(result)
	if err != nil {
		log.Warn("read_raw: write-back failed", "error", err)
		return 0, 0, status.ZephyrQueryError
	}

	return offAfter, n, status.OK
}

// ReadRawAs implements read_as_id: identical to ReadRaw, except the
// backend query runs against altTenant rather than the Host's own tenant
// id. This lets a program read another tenant's table namespace without
// otherwise changing the pseudo-stack protocol.
func (h *Host) ReadRawAs(altTenant int64) (off, length int64, st status.Status) {
	defer h.stack.Clear()

	if h.permissions == WriteOnly {
		return 0, 0, status.ReadOnWriteOnly
	}

	tableSymbol, columns, err := h.readTableAndColumns()
	if err != nil {
		log.Debug("read_as_id: malformed stack", "error", err)
		return 0, 0, status.ZephyrQueryMalformed
	}

	preds, ok, err := h.tryReadPredicates()
	if err != nil {
		if errors.Is(err, ErrUnknownOperator) {
			return 0, 0, status.OperatorError
		}
		return 0, 0, status.ZephyrQueryMalformed
	}
	if !ok {
		preds = nil
	}

	digest := TableDigest(tableSymbol, altTenant)
	result, err := h.backend.Read(altTenant, digest, columns, preds)
	if err != nil {
		log.Warn("read_as_id: backend error", "error", err)
		return 0, 0, status.ZephyrQueryError
	}

	offAfter, n, err := h.mem.Write(result)
	if err != nil {
		log.Warn("read_as_id: write-back failed", "error", err)
		return 0, 0, status.ZephyrQueryError
	}

	return offAfter, n, status.OK
}

func (h *Host) readTableAndRow() (tableSymbol int64, row Row, err error) {
	tableSymbol, columns, err := h.readTableAndColumns()
	if err != nil {
		return 0, Row{}, err
	}

	nSegments, err := h.stack.GetWithStep()
	if err != nil {
		return 0, Row{}, err
	}

	values := make([][]byte, 0, nSegments)
	for i := int64(0); i < nSegments; i++ {
		offset, err := h.stack.GetWithStep()
		if err != nil {
			return 0, Row{}, err
		}
		length, err := h.stack.GetWithStep()
		if err != nil {
			return 0, Row{}, err
		}
		if length > budget.StandardWriteMax {
			return 0, Row{}, fmt.Errorf("dbhost: segment of %d bytes exceeds write limit %d", length, budget.StandardWriteMax)
		}
		blob, err := h.mem.ReadSegment(offset, length)
		if err != nil {
			return 0, Row{}, fmt.Errorf("dbhost: read segment: %w", err)
		}
		values = append(values, blob)
	}

	if len(values) != len(columns) {
		return 0, Row{}, fmt.Errorf("dbhost: %d columns but %d values", len(columns), len(values))
	}

	return tableSymbol, Row{Columns: columns, Values: values}, nil
}

func (h *Host) readTableAndColumns() (tableSymbol int64, columns []int64, err error) {
	tableSymbol, err = h.stack.GetWithStep()
	if err != nil {
		return 0, nil, err
	}

	nCols, err := h.stack.GetWithStep()
	if err != nil {
		return 0, nil, err
	}

	columns = make([]int64, 0, nCols)
	for i := int64(0); i < nCols; i++ {
		col, err := h.stack.GetWithStep()
		if err != nil {
			return 0, nil, err
		}
		columns = append(columns, col)
	}

	return tableSymbol, columns, nil
}

// readPredicates reads N_conds + predicates + N_cond_args + blobs,
// unconditionally (used by UpdateRaw, where the tail is mandatory).
func (h *Host) readPredicates() ([]Predicate, error) {
	nConds, err := h.stack.GetWithStep()
	if err != nil {
		return nil, err
	}
	return h.readPredicateBody(nConds)
}

// tryReadPredicates implements the "optional predicate tail" read-ABI
// quirk: if the next pop fails (stack exhausted), there are no predicates
// and ok is false; any other failure is a real malformed-stack error.
func (h *Host) tryReadPredicates() (preds []Predicate, ok bool, err error) {
	nConds, err := h.stack.GetWithStep()
	if err != nil {
		if errors.Is(err, pseudostack.ErrNoValOnStack) {
			return nil, false, nil
		}
		return nil, false, err
	}
	preds, err = h.readPredicateBody(nConds)
	if err != nil {
		return nil, false, err
	}
	return preds, true, nil
}

func (h *Host) readPredicateBody(nConds int64) ([]Predicate, error) {
	type partial struct {
		column int64
		op     Operator
	}
	cols := make([]partial, 0, nConds)
	for i := int64(0); i < nConds; i++ {
		column, err := h.stack.GetWithStep()
		if err != nil {
			return nil, err
		}
		opCode, err := h.stack.GetWithStep()
		if err != nil {
			return nil, err
		}
		op := Operator(opCode)
		if op != OpEqual && op != OpGT && op != OpLT {
			return nil, ErrUnknownOperator
		}
		cols = append(cols, partial{column: column, op: op})
	}

	nCondArgs, err := h.stack.GetWithStep()
	if err != nil {
		return nil, err
	}
	if nCondArgs != int64(len(cols)) {
		return nil, fmt.Errorf("dbhost: %d predicate columns but %d condition args", len(cols), nCondArgs)
	}

	preds := make([]Predicate, 0, nCondArgs)
	for i, c := range cols {
		offset, err := h.stack.GetWithStep()
		if err != nil {
			return nil, err
		}
		length, err := h.stack.GetWithStep()
		if err != nil {
			return nil, err
		}
		blob, err := h.mem.ReadSegment(offset, length)
		if err != nil {
			return nil, fmt.Errorf("dbhost: read predicate arg %d: %w", i, err)
		}
		preds = append(preds, Predicate{Column: c.column, Operator: c.op, Value: blob})
	}

	return preds, nil
}

// symbolName exposes the symbol package's codec for callers that need to
// render column/table symbols for logging or diagnostics.
func symbolName(sym int64) string {
	s, err := symbol.Decode(sym)
	if err != nil {
		return fmt.Sprintf("<%d>", sym)
	}
	return s
}
