// Package bridge forwards the auto-generated catalogue of embedded
// contract host calls from the guest to an embedded smart-contract host,
// relativizing object references between the embedded host's absolute
// form and the guest's relative form.
package bridge

import (
	"errors"
	"fmt"

	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("host/bridge")

// ErrBadValueTag signals that an argument's tagged-value kind did not
// match what the forwarded function expected.
var ErrBadValueTag = errors.New("bridge: bad tagged-value kind")

// ErrUnknownFunction signals a (module, name) pair not present in the
// catalogue.
var ErrUnknownFunction = errors.New("bridge: unknown forwarded function")

// Kind enumerates the finite set of value kinds the relativization
// catalogue is closed over (spec.md §9 design note).
type Kind int

const (
	KindAddress Kind = iota
	KindBytes
	KindDuration
	KindTimepoint
	KindSymbol
	KindString
	KindVec
	KindMap
	KindI64
	KindI128
	KindI256
	KindU64
	KindU128
	KindU256
	KindRawVal
	KindVoid
	KindBool
	KindError
	KindStorageTag
)

// Relativizer converts a single value kind between the wire tagged-value
// form and the embedded host's absolute object-reference form, and back
// (spec.md §9 design note: a per-type conversion trait with four
// operations).
type Relativizer interface {
	Kind() Kind
	// TryFromRaw strips and checks the tag on a raw 64-bit tagged value,
	// returning its payload only if the tag matches Kind. This is the
	// argument-validation step of spec.md §4.8 invariant 2: every
	// argument is tagged, and the tag is checked before the typed
	// embedded-host function is invoked.
	TryFromRaw(raw int64) (payload int64, ok bool)
	// AbsoluteToRelative converts an embedded-host object handle (or
	// inline scalar payload) into its guest-visible relative payload.
	AbsoluteToRelative(absolute int64) (int64, error)
	// RelativeToAbsolute converts a guest-supplied relative payload into
	// an embedded-host object handle (or inline scalar payload).
	RelativeToAbsolute(relative int64) (int64, error)
	// MarshalToRaw re-tags a payload into the 64-bit wire form the guest
	// expects back across the ABI.
	MarshalToRaw(payload int64) int64
}

// EmbeddedHost is the narrow view of the embedded smart-contract host that
// the bridge forwards calls to. Its internals are out of scope (spec.md
// §1); this interface is the seam. StubEmbeddedHost is the default
// concrete implementation wired by exec.Wrapper and cmd/vmhostd.
type EmbeddedHost interface {
	// Call invokes a named embedded-host function inside the fixed
	// synthetic contract frame, with arguments already relativized to
	// absolute form, and returns the raw absolute-form result.
	Call(name string, args []int64) (int64, error)
	// ResetBudgetUnlimited decouples the embedded host's own budget meter
	// from the VM's fuel counter, per spec.md §4.8 invariant 4.
	ResetBudgetUnlimited()
	// ObjectCount reports the size of the embedded host's object table at
	// the moment of the call, used to derive the frame-base every
	// handle-kind Relativizer rebases against (spec.md §4.8 invariant 1).
	ObjectCount() int64
	// ToEnvMap builds an embedded-host map object out of serialized entry
	// records and returns its absolute object handle, for
	// read_contract_entries_by_contract_to_env (spec.md §6.2).
	ToEnvMap(entries [][]byte) (int64, error)
	// ScValToHostVal decodes a serialized external scval and returns its
	// embedded-host tagged value, for scval_to_valid_host_val.
	ScValToHostVal(scval []byte) (int64, error)
	// HostValToScVal encodes an embedded-host tagged value back to its
	// serialized external scval form, for valid_host_val_to_scval.
	HostValToScVal(hostVal int64) ([]byte, error)
	// SimulateTransaction runs the simulation engine over a serialized
	// host-function invocation from sourceAccount against the current
	// ledger snapshot (sequence, timestamp, network config) and returns
	// the serialized simulation response, for soroban_simulate_tx.
	SimulateTransaction(hostFn []byte, sourceAccount [32]byte, bucketListSize uint64) ([]byte, error)
}

// Entry describes one forwarded function in the catalogue: its wire
// identity (module, name), arity, and the relativization kind of each
// argument/return slot. In a from-scratch build this table would be
// generated from a declarative schema (spec.md §9); here it is a literal
// Go table of the subset of calls this runtime forwards.
type Entry struct {
	Module   string
	Name     string
	ArgKinds []Kind
	RetKind  Kind
}

// Catalogue is the full set of forwarded functions, keyed by (module,
// name).
type Catalogue map[[2]string]Entry

// Bridge forwards calls from the guest to an EmbeddedHost according to a
// Catalogue, applying relativization per entry.
type Bridge struct {
	host        EmbeddedHost
	catalogue   Catalogue
	relativizer map[Kind]Relativizer
}

// New returns a Bridge forwarding through host according to catalogue,
// using relativizers (one per Kind the catalogue references).
func New(host EmbeddedHost, catalogue Catalogue, relativizers []Relativizer) *Bridge {
	byKind := make(map[Kind]Relativizer, len(relativizers))
	for _, r := range relativizers {
		byKind[r.Kind()] = r
	}
	return &Bridge{host: host, catalogue: catalogue, relativizer: byKind}
}

// NewDefault returns a Bridge over catalogue using DefaultRelativizers,
// scoped to host's object-table size at construction time as the frame
// base (spec.md §4.8 invariant 1).
func NewDefault(host EmbeddedHost, catalogue Catalogue) *Bridge {
	return New(host, catalogue, DefaultRelativizers(host.ObjectCount()))
}

// Entries returns every catalogue entry, for callers (such as the VM's
// linker setup) that need to enumerate and register each forwarded
// function as a guest import.
func (b *Bridge) Entries() []Entry {
	out := make([]Entry, 0, len(b.catalogue))
	for _, e := range b.catalogue {
		out = append(out, e)
	}
	return out
}

// ToEnvMap builds an embedded-host map from entries and returns its
// relative (guest-visible) handle, implementing
// read_contract_entries_by_contract_to_env.
func (b *Bridge) ToEnvMap(entries [][]byte) (int64, error) {
	abs, err := b.host.ToEnvMap(entries)
	if err != nil {
		return 0, fmt.Errorf("bridge: to_env map: %w", err)
	}
	r, ok := b.relativizer[KindMap]
	if !ok {
		return 0, fmt.Errorf("%w: no relativizer for kind map", ErrBadValueTag)
	}
	rel, err := r.AbsoluteToRelative(abs)
	if err != nil {
		return 0, fmt.Errorf("bridge: to_env map: %w", err)
	}
	return r.MarshalToRaw(rel), nil
}

// ScValToHostVal decodes a guest-supplied scval blob into a relative
// tagged host value, implementing scval_to_valid_host_val.
func (b *Bridge) ScValToHostVal(scval []byte) (int64, error) {
	abs, err := b.host.ScValToHostVal(scval)
	if err != nil {
		return 0, fmt.Errorf("bridge: scval_to_valid_host_val: %w", err)
	}
	r, ok := b.relativizer[KindRawVal]
	if !ok {
		return 0, fmt.Errorf("%w: no relativizer for kind raw val", ErrBadValueTag)
	}
	rel, err := r.AbsoluteToRelative(abs)
	if err != nil {
		return 0, fmt.Errorf("bridge: scval_to_valid_host_val: %w", err)
	}
	return r.MarshalToRaw(rel), nil
}

// HostValToScVal encodes a guest-supplied relative tagged host value back
// into its serialized scval form, implementing valid_host_val_to_scval.
func (b *Bridge) HostValToScVal(hostVal int64) ([]byte, error) {
	r, ok := b.relativizer[KindRawVal]
	if !ok {
		return nil, fmt.Errorf("%w: no relativizer for kind raw val", ErrBadValueTag)
	}
	payload, ok := r.TryFromRaw(hostVal)
	if !ok {
		return nil, fmt.Errorf("%w: valid_host_val_to_scval: not a raw val", ErrBadValueTag)
	}
	abs, err := r.RelativeToAbsolute(payload)
	if err != nil {
		return nil, fmt.Errorf("bridge: valid_host_val_to_scval: %w", err)
	}
	out, err := b.host.HostValToScVal(abs)
	if err != nil {
		return nil, fmt.Errorf("bridge: valid_host_val_to_scval: %w", err)
	}
	return out, nil
}

// SimulateTransaction forwards a transaction-simulation request to the
// embedded host, implementing soroban_simulate_tx (spec.md §4.8
// invariant 6). The embedded host's budget is reset to unlimited first,
// matching every other forwarded call.
func (b *Bridge) SimulateTransaction(hostFn []byte, sourceAccount [32]byte, bucketListSize uint64) ([]byte, error) {
	b.host.ResetBudgetUnlimited()
	out, err := b.host.SimulateTransaction(hostFn, sourceAccount, bucketListSize)
	if err != nil {
		return nil, fmt.Errorf("bridge: soroban_simulate_tx: %w", err)
	}
	return out, nil
}

// Forward invokes the named (module, function) entry: for each argument it
// validates the wire tag and strips it (TryFromRaw), then relativizes the
// payload from relative (guest) to absolute (embedded host) form
// (RelativeToAbsolute) — spec.md §4.8 invariant 2 requires the tag to be
// checked before the typed embedded-host function is invoked. It then
// resets the embedded host's budget to unlimited, calls it inside the
// fixed synthetic contract frame, relativizes the result back to relative
// form (AbsoluteToRelative), and re-tags it for the wire (MarshalToRaw).
// Any embedded-host error is wrapped with the forwarding function name,
// per spec.md §4.8 invariant 5, and is meant to be surfaced as a guest
// trap by the caller.
func (b *Bridge) Forward(module, name string, args []int64) (int64, error) {
	entry, ok := b.catalogue[[2]string{module, name}]
	if !ok {
		return 0, fmt.Errorf("%w: %s::%s", ErrUnknownFunction, module, name)
	}
	if len(args) != len(entry.ArgKinds) {
		return 0, fmt.Errorf("bridge: %s::%s expects %d args, got %d", module, name, len(entry.ArgKinds), len(args))
	}

	absoluteArgs := make([]int64, len(args))
	for i, arg := range args {
		r, ok := b.relativizer[entry.ArgKinds[i]]
		if !ok {
			return 0, fmt.Errorf("%w: no relativizer for kind %d", ErrBadValueTag, entry.ArgKinds[i])
		}
		payload, ok := r.TryFromRaw(arg)
		if !ok {
			return 0, fmt.Errorf("%w: %s::%s arg %d is not a %v", ErrBadValueTag, module, name, i, entry.ArgKinds[i])
		}
		abs, err := r.RelativeToAbsolute(payload)
		if err != nil {
			return 0, fmt.Errorf("bridge: %s::%s arg %d: %w", module, name, i, err)
		}
		absoluteArgs[i] = abs
	}

	b.host.ResetBudgetUnlimited()

	absResult, err := b.host.Call(name, absoluteArgs)
	if err != nil {
		log.Debug("bridge: embedded host call failed", "function", name, "error", err)
		return 0, fmt.Errorf("bridge: %s::%s: %w", module, name, err)
	}

	retRelativizer, ok := b.relativizer[entry.RetKind]
	if !ok {
		return 0, fmt.Errorf("%w: no relativizer for return kind %d", ErrBadValueTag, entry.RetKind)
	}
	relPayload, err := retRelativizer.AbsoluteToRelative(absResult)
	if err != nil {
		return 0, fmt.Errorf("bridge: %s::%s return: %w", module, name, err)
	}
	return retRelativizer.MarshalToRaw(relPayload), nil
}
