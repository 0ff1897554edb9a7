// Package vm implements the VM (C10): engine configuration, module
// compilation, store/instance construction, host-function linking, and
// single-invocation dispatch under a fuel budget.
package vm

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v14"
	logger "github.com/multiversx/mx-chain-logger-go"

	hostpkg "github.com/xycloo/zephyr-vm-go/host"
)

var log = logger.GetOrCreate("vm")

// Stack limit constants, matching the original engine configuration
// (spec.md §4.10 step 1).
const (
	MinValueStackHeight = 1024
	MaxValueStackHeight = 2_097_152
	MaxRecursionDepth   = 1024
)

const memoryExportName = "memory"

// VM is the engine/config/module/store/instance quintet for a single
// invocation. Per-invocation VMs are never reused across inputs.
type VM struct {
	engine *wasmtime.Engine
	store  *wasmtime.Store
	module *wasmtime.Module
	linker *wasmtime.Linker
	inst   *wasmtime.Instance
	host   *hostpkg.Host

	live bool
}

// Live reports whether this VM is still usable, satisfying
// vmcontext.VMRef. A VM is live from construction until Close.
func (v *VM) Live() bool {
	return v.live
}

// New performs the full construction sequence from spec.md §4.10:
// configure the engine, compile the module, create the store with host as
// user data and fuel installed, create the linker and define every host
// function, instantiate and start the module, acquire the memory export,
// install it into the host's Memory Manager, and publish a reference to
// this VM into the host's Context.
func New(wasmBytes []byte, h *hostpkg.Host, define func(*wasmtime.Linker, *wasmtime.Store, *hostpkg.Host) error) (*VM, error) {
	cfg := wasmtime.NewConfig()
	cfg.SetConsumeFuel(true)
	cfg.SetMaxWasmStack(MaxValueStackHeight)

	engine := wasmtime.NewEngineWithConfig(cfg)

	module, err := wasmtime.NewModule(engine, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("vm: compile module: %w", err)
	}

	store := wasmtime.NewStore(engine)
	store.SetData(h)
	if err := h.Budget.Install(store); err != nil {
		return nil, fmt.Errorf("vm: install fuel: %w", err)
	}

	linker := wasmtime.NewLinker(engine)
	if define != nil {
		if err := define(linker, store, h); err != nil {
			return nil, fmt.Errorf("vm: define host functions: %w", err)
		}
	}

	inst, err := linker.Instantiate(store, module)
	if err != nil {
		return nil, fmt.Errorf("vm: instantiate: %w", err)
	}

	memExport := inst.GetExport(store, memoryExportName)
	if memExport == nil || memExport.Memory() == nil {
		return nil, hostpkg.ErrNoMemoryExport
	}
	h.Memory.Install(store, memExport.Memory())

	v := &VM{
		engine: engine,
		store:  store,
		module: module,
		linker: linker,
		inst:   inst,
		host:   h,
		live:   true,
	}

	if err := h.Context.Bind(v); err != nil {
		return nil, err
	}

	return v, nil
}

// Call looks up fn.Name on the instance and invokes it with fn.Args,
// returning the host's drained result buffer. Missing export fails with
// ErrNoEntryPointExport; present but non-function export fails with
// ErrExternNotAFunction.
func (v *VM) Call(fnName string, args []int64) (string, error) {
	export := v.inst.GetExport(v.store, fnName)
	if export == nil {
		return "", hostpkg.ErrNoEntryPointExport
	}
	fn := export.Func()
	if fn == nil {
		return "", hostpkg.ErrExternNotAFunction
	}

	wasmArgs := make([]interface{}, len(args))
	for i, a := range args {
		wasmArgs[i] = a
	}

	if _, err := fn.Call(v.store, wasmArgs...); err != nil {
		log.Debug("vm: guest call trapped", "function", fnName, "error", err)
		return v.host.Result(), fmt.Errorf("vm: call %s: %w", fnName, err)
	}

	return v.host.Result(), nil
}

// Close tears the VM down; after Close, Live returns false and any Host
// still holding a weak reference to this VM will fail to upgrade it.
func (v *VM) Close() {
	v.live = false
}
