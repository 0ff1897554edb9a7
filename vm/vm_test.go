package vm

import (
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v14"
	"github.com/stretchr/testify/require"

	hostpkg "github.com/xycloo/zephyr-vm-go/host"
	"github.com/xycloo/zephyr-vm-go/host/budget"
)

func newTestHost(t *testing.T, fuel uint64) *hostpkg.Host {
	t.Helper()
	identity := hostpkg.Identity{TenantID: 42}
	return hostpkg.New(identity, budget.New(fuel), nil, nil, nil, nil)
}

func TestVM_New_MissingMemoryExport(t *testing.T) {
	t.Parallel()
	wasmBytes, err := wasmtime.Wat2Wasm(`(module (func (export "on_close")))`)
	require.NoError(t, err)

	h := newTestHost(t, budget.StandardFuel)
	_, err = New(wasmBytes, h, Define)
	require.ErrorIs(t, err, hostpkg.ErrNoMemoryExport)
}

func TestVM_Call_EntryPointMissing(t *testing.T) {
	t.Parallel()
	wasmBytes, err := wasmtime.Wat2Wasm(`
		(module
		  (memory (export "memory") 1)
		  (func (export "foo")))
	`)
	require.NoError(t, err)

	h := newTestHost(t, budget.StandardFuel)
	machine, err := New(wasmBytes, h, Define)
	require.NoError(t, err)

	_, err = machine.Call(hostpkg.DefaultEntryPoint, nil)
	require.ErrorIs(t, err, hostpkg.ErrNoEntryPointExport)
}

func TestVM_Call_ConcludeRoundTrip(t *testing.T) {
	t.Parallel()
	wasmBytes, err := wasmtime.Wat2Wasm(`
		(module
		  (import "env" "conclude" (func $conclude (param i64 i64)))
		  (memory (export "memory") 1)
		  (data (i32.const 0) "hi")
		  (func (export "on_close")
		    i64.const 0
		    i64.const 2
		    call $conclude))
	`)
	require.NoError(t, err)

	h := newTestHost(t, budget.StandardFuel)
	machine, err := New(wasmBytes, h, Define)
	require.NoError(t, err)

	result, err := machine.Call(hostpkg.DefaultEntryPoint, nil)
	require.NoError(t, err)
	require.Equal(t, "hi", result)
}

func TestVM_Call_FuelExhaustionTraps(t *testing.T) {
	t.Parallel()
	wasmBytes, err := wasmtime.Wat2Wasm(`
		(module
		  (memory (export "memory") 1)
		  (func (export "on_close")
		    (loop $l
		      br $l)))
	`)
	require.NoError(t, err)

	h := newTestHost(t, 10)
	machine, err := New(wasmBytes, h, Define)
	require.NoError(t, err)

	_, err = machine.Call(hostpkg.DefaultEntryPoint, nil)
	require.Error(t, err)
}
