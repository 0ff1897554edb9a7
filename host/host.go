// Package host implements the Host State (C9): the aggregate that bundles
// identity, the pseudo-stack, memory manager, context, budget, database
// and ledger sub-hosts, outbound relay, embedded-host bridge, and the
// result buffer, shared with the guest via the engine's store user-data.
package host

import (
	"strings"
	"sync"

	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/xycloo/zephyr-vm-go/host/bridge"
	"github.com/xycloo/zephyr-vm-go/host/budget"
	"github.com/xycloo/zephyr-vm-go/host/dbhost"
	"github.com/xycloo/zephyr-vm-go/host/ledgerhost"
	"github.com/xycloo/zephyr-vm-go/host/memmanager"
	"github.com/xycloo/zephyr-vm-go/host/pseudostack"
	"github.com/xycloo/zephyr-vm-go/host/relay"
	"github.com/xycloo/zephyr-vm-go/host/status"
	"github.com/xycloo/zephyr-vm-go/host/vmcontext"
)

var log = logger.GetOrCreate("host")

// Identity is the immutable tenant/network binding of a Host.
type Identity struct {
	TenantID  int64
	NetworkID [32]byte
}

// InvokedFunction describes the function a VM invocation is asked to run:
// defaults to the zero-arg, zero-result "on_close" entry point.
type InvokedFunction struct {
	Name string
	Args []int64
}

// DefaultEntryPoint is the function invoked on a standard catch-up/event
// application when the caller does not name one explicitly.
const DefaultEntryPoint = "on_close"

// DefaultInvokedFunction returns the InvokedFunction describing the
// default entry point.
func DefaultInvokedFunction() InvokedFunction {
	return InvokedFunction{Name: DefaultEntryPoint}
}

// Host aggregates every sub-host and is the value the engine's store
// attaches as user data. It is single-threaded per invocation (one Host
// per request, per spec.md §5).
type Host struct {
	mu sync.Mutex

	identity Identity

	resultBuffer strings.Builder

	input    []byte
	inputSet bool

	Stack   *pseudostack.PseudoStack
	Memory  *memmanager.Manager
	Context *vmcontext.Context
	Budget  *budget.Budget

	DB     *dbhost.Host
	Ledger *ledgerhost.Host
	Bridge *bridge.Bridge

	outbound *relay.Sender

	entryPoint InvokedFunction

	// bucketListSize is the ambient value read from /tmp/currentbucketsize
	// (spec.md §6.3), consulted by soroban_simulate_tx. Set once by the
	// Execution Wrapper before invocation.
	bucketListSize uint64
}

// New constructs a Host State for identity, with fresh pseudo-stack,
// memory manager and context, and the given budget. db and ledger may be
// nil and assigned afterward once constructed against this Host's Stack
// and Memory (a caller needs the Host's Stack/Memory pointers to build
// them); outbound may be nil if no relay is attached for this invocation.
func New(
	identity Identity,
	b *budget.Budget,
	db *dbhost.Host,
	ledger *ledgerhost.Host,
	br *bridge.Bridge,
	outbound *relay.Sender,
) *Host {
	h := &Host{
		identity:   identity,
		Stack:      pseudostack.New(),
		Memory:     memmanager.New(),
		Context:    vmcontext.New(),
		Budget:     b,
		DB:         db,
		Ledger:     ledger,
		Bridge:     br,
		outbound:   outbound,
		entryPoint: DefaultInvokedFunction(),
	}
	return h
}

// Identity returns the Host's tenant/network binding.
func (h *Host) Identity() Identity {
	return h.identity
}

// SetEntryPoint overrides the default "on_close" entry point, used for
// direct /run-style function calls.
func (h *Host) SetEntryPoint(fn InvokedFunction) {
	h.entryPoint = fn
}

// EntryPoint returns the function this invocation will call.
func (h *Host) EntryPoint() InvokedFunction {
	return h.entryPoint
}

// SetInput sets the invocation's input payload exactly once; a second call
// fails with ErrLedgerCloseMetaOverridden.
func (h *Host) SetInput(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.inputSet {
		return ErrLedgerCloseMetaOverridden
	}
	h.input = data
	h.inputSet = true
	return nil
}

// Input returns the invocation's input payload, failing if it was never
// set.
func (h *Host) Input() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.inputSet {
		return nil, ErrNoLedgerCloseMeta
	}
	return h.input, nil
}

// Conclude appends s to the result buffer; implements the `conclude` host
// call.
func (h *Host) Conclude(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resultBuffer.WriteString(s)
}

// Result drains and returns the accumulated result buffer. Called once by
// the invocation driver after the guest call returns (or traps).
func (h *Host) Result() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.resultBuffer.String()
	h.resultBuffer.Reset()
	return s
}

// SendMessage enqueues a relay message; implements tx_send_message. Fails
// with relay.ErrNoTransmitter if no Sender is attached.
func (h *Host) SendMessage(msg relay.Message) error {
	if h.outbound == nil {
		return relay.ErrNoTransmitter
	}
	h.outbound.Send(msg)
	return nil
}

// Log emits a host-side log record, implementing zephyr_logger.
func (h *Host) Log(level relay.LogLevel, message string) {
	switch level {
	case relay.LogError:
		log.Error(message)
	case relay.LogWarn:
		log.Warn(message)
	case relay.LogInfo:
		log.Info(message)
	default:
		log.Debug(message)
	}
}

// SetBucketListSize records the ambient bucket-list size (spec.md §6.3)
// consulted by SimulateTransaction. The Execution Wrapper reads it once
// per invocation from the /tmp/currentbucketsize file via
// config.ReadBucketSize.
func (h *Host) SetBucketListSize(v uint64) {
	h.bucketListSize = v
}

// ReadContractEntriesToEnv implements
// read_contract_entries_by_contract_to_env: like Ledger.ReadContractEntries,
// but instead of writing the serialized entry list into linear memory it
// builds an embedded-host map object out of the entries and returns its
// relative handle, so the guest can hand it directly to the embedded
// contract host without a round trip through memory.
func (h *Host) ReadContractEntriesToEnv(contractID [32]byte) (mapHandle int64, st status.Status) {
	if h.Bridge == nil {
		return 0, status.HostConfiguration
	}
	entries, err := h.Ledger.RawEntries(contractID)
	if err != nil {
		log.Warn("read_contract_entries_by_contract_to_env: backend error", "error", err)
		return 0, status.ZephyrQueryError
	}
	handle, err := h.Bridge.ToEnvMap(entries)
	if err != nil {
		log.Debug("read_contract_entries_by_contract_to_env: bridge error", "error", err)
		return 0, status.ZephyrQueryError
	}
	return handle, status.OK
}

// ScValToHostVal implements scval_to_valid_host_val: reads a serialized
// scval blob from linear memory and returns the embedded host's relative
// tagged value for it.
func (h *Host) ScValToHostVal(offset, length int64) (hostVal int64, st status.Status) {
	if h.Bridge == nil {
		return 0, status.HostConfiguration
	}
	raw, err := h.Memory.ReadSegment(offset, length)
	if err != nil {
		log.Debug("scval_to_valid_host_val: read segment failed", "error", err)
		return 0, status.ZephyrQueryMalformed
	}
	hostVal, err = h.Bridge.ScValToHostVal(raw)
	if err != nil {
		log.Debug("scval_to_valid_host_val: bridge error", "error", err)
		return 0, status.ZephyrQueryError
	}
	return hostVal, status.OK
}

// ValidHostValToScVal implements valid_host_val_to_scval: encodes a
// relative tagged host value back to its serialized scval form and writes
// it into linear memory, returning the standard (offsetAfter, length)
// write-back pair.
func (h *Host) ValidHostValToScVal(hostVal int64) (off, length int64, st status.Status) {
	if h.Bridge == nil {
		return 0, 0, status.HostConfiguration
	}
	scval, err := h.Bridge.HostValToScVal(hostVal)
	if err != nil {
		log.Debug("valid_host_val_to_scval: bridge error", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	offAfter, n, err := h.Memory.Write(scval)
	if err != nil {
		log.Warn("valid_host_val_to_scval: write-back failed", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	return offAfter, n, status.OK
}

// SimulateTransaction implements soroban_simulate_tx: reads a serialized
// host-function blob from linear memory, runs the embedded host's
// simulation engine against a snapshot keyed by the source account and
// the ambient bucket-list size, and writes the serialized response back
// into linear memory.
func (h *Host) SimulateTransaction(hostFnOffset, hostFnLength int64, sourceAccount [32]byte) (off, length int64, st status.Status) {
	if h.Bridge == nil {
		return 0, 0, status.HostConfiguration
	}
	hostFn, err := h.Memory.ReadSegment(hostFnOffset, hostFnLength)
	if err != nil {
		log.Debug("soroban_simulate_tx: read segment failed", "error", err)
		return 0, 0, status.ZephyrQueryMalformed
	}
	response, err := h.Bridge.SimulateTransaction(hostFn, sourceAccount, h.bucketListSize)
	if err != nil {
		log.Warn("soroban_simulate_tx: simulation failed", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	offAfter, n, err := h.Memory.Write(response)
	if err != nil {
		log.Warn("soroban_simulate_tx: write-back failed", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	return offAfter, n, status.OK
}
