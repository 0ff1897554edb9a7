// Package exec implements the Execution Wrapper (C11): the per-request
// driver that builds a fresh Host State and VM, feeds it input, and pipes
// outbound relay messages to an I/O task while the guest runs on a
// blocking worker.
package exec

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/xycloo/zephyr-vm-go/config"
	hostpkg "github.com/xycloo/zephyr-vm-go/host"
	"github.com/xycloo/zephyr-vm-go/host/bridge"
	"github.com/xycloo/zephyr-vm-go/host/budget"
	"github.com/xycloo/zephyr-vm-go/host/dbhost"
	"github.com/xycloo/zephyr-vm-go/host/ledgerhost"
	"github.com/xycloo/zephyr-vm-go/host/relay"
	"github.com/xycloo/zephyr-vm-go/vm"
)

var log = logger.GetOrCreate("exec/wrapper")

// Mode selects whether a request invokes the default catch-up entry point
// over event/ledger-close-meta input, or calls a named function directly.
type Mode int

const (
	ModeEventCatchup Mode = iota
	ModeFunction
)

// Request describes one invocation: which program to run, in which mode,
// over which input.
type Request struct {
	Mode     Mode
	BinaryID uint32
	Identity hostpkg.Identity
	Input    []byte // ledger close meta / event payload, for ModeEventCatchup
	FuncName string // for ModeFunction
	FuncArgs []int64
	Timeout  time.Duration
}

// ProgramLoader resolves a binary id to compiled WASM module bytes.
type ProgramLoader interface {
	Load(binaryID uint32) ([]byte, error)
}

// OutboundDispatcher is the consumer side of the relay: it receives the
// messages drained from a single invocation's Sender. The Wrapper hands
// every message to DispatchLog; it never calls DispatchHTTP.
type OutboundDispatcher interface {
	DispatchHTTP(req relay.AgnosticRequest)
	DispatchLog(rec relay.LogRecord)
}

// Wrapper is the Execution Wrapper: it owns the program loader, database
// and ledger backends, and the outbound dispatcher shared across
// invocations.
type Wrapper struct {
	Programs ProgramLoader
	DB       dbhost.Backend
	Ledger   ledgerhost.Backend
	Embedded bridge.EmbeddedHost
	Bridge   bridge.Catalogue
	Dispatch OutboundDispatcher

	DefaultTimeout time.Duration

	// BucketSizePath is the ambient file consulted for soroban_simulate_tx
	// (spec.md §6.3); defaults to /tmp/currentbucketsize when empty.
	BucketSizePath string
}

// Run builds one Host per request, attaches a per-invocation outbound
// sender, constructs the VM on a blocking worker, calls the requested
// function, and returns the drained result string. Per spec.md §7's
// propagation policy, a fatal error (VM construction, link errors, guest
// panic recovered outside the guest) is returned as an error and the
// result string is discarded; outbound messages already sent before a
// fatal error are still delivered.
func (w *Wrapper) Run(ctx context.Context, req Request) (result string, err error) {
	wasmBytes, loadErr := w.Programs.Load(req.BinaryID)
	if loadErr != nil {
		return "", fmt.Errorf("exec: load program: %w", loadErr)
	}

	sender := relay.NewSender()
	receiver := relay.NewReceiver(sender)

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		for {
			msg, ok := receiver.Next()
			if !ok {
				return
			}
			w.dispatchMessage(msg)
		}
	}()

	b := budget.Standard()

	var br *bridge.Bridge
	if w.Embedded != nil {
		catalogue := w.Bridge
		if catalogue == nil {
			catalogue = bridge.DefaultCatalogue()
		}
		br = bridge.NewDefault(w.Embedded, catalogue)
	}

	h := hostpkg.New(req.Identity, b, nil, nil, br, sender)
	h.DB = dbhost.New(req.Identity.TenantID, dbhost.ReadWrite, w.DB, h.Stack, h.Memory)
	h.Ledger = ledgerhost.New(w.Ledger, h.Memory)

	bucketPath := w.BucketSizePath
	if bucketPath == "" {
		bucketPath = config.DefaultBucketSizeFile
	}
	h.SetBucketListSize(config.ReadBucketSize(bucketPath, 0))

	if req.Mode == ModeEventCatchup {
		if setErr := h.SetInput(req.Input); setErr != nil {
			sender.Close()
			<-dispatchDone
			return "", setErr
		}
	} else {
		h.SetEntryPoint(hostpkg.InvokedFunction{Name: req.FuncName, Args: req.FuncArgs})
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = w.DefaultTimeout
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan struct{})
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("exec: invocation panicked", "error", r, "stack", string(debug.Stack()))
				errChan <- fmt.Errorf("%w: %v", ErrExecutionPanicked, r)
			}
		}()

		machine, buildErr := vm.New(wasmBytes, h, vm.Define)
		if buildErr != nil {
			errChan <- buildErr
			return
		}
		defer machine.Close()

		fn := h.EntryPoint()
		out, callErr := machine.Call(fn.Name, fn.Args)
		result = out
		if callErr != nil {
			errChan <- callErr
			return
		}

		close(done)
	}()

	select {
	case <-done:
		// normal termination
	case <-runCtx.Done():
		err = fmt.Errorf("exec: invocation timed out: %w", runCtx.Err())
	case err = <-errChan:
	}

	sender.Close()
	<-dispatchDone

	if err != nil {
		return "", err
	}
	return result, nil
}

func (w *Wrapper) dispatchMessage(msg relay.Message) {
	if w.Dispatch == nil {
		return
	}
	// The wire schema of a relay message (HTTP request vs. log record) is
	// opaque to the VM host proper (spec.md §4.7). Messages are not decoded
	// here: each one is passed on as an info-level log record whose text is
	// the raw payload.
	w.Dispatch.DispatchLog(relay.LogRecord{Level: relay.LogInfo, Message: string(msg)})
}
