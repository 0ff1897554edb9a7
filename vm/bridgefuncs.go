package vm

import (
	"github.com/bytecodealliance/wasmtime-go/v14"

	hostpkg "github.com/xycloo/zephyr-vm-go/host"
)

// defineBridgeForwarders registers one import per catalogue entry in
// h.Bridge, all taking and returning int64-tagged values per the arity the
// entry declares. Each simply forwards to Bridge.Forward; any embedded-host
// error becomes a guest trap (spec.md §4.8 invariant 5).
func defineBridgeForwarders(linker *wasmtime.Linker, store *wasmtime.Store, h *hostpkg.Host) error {
	if h.Bridge == nil {
		return nil
	}

	i64 := wasmtime.NewValType(wasmtime.KindI64)

	for _, entry := range h.Bridge.Entries() {
		entry := entry

		params := make([]*wasmtime.ValType, len(entry.ArgKinds))
		for i := range params {
			params[i] = i64
		}
		sig := wasmtime.NewFuncType(params, []*wasmtime.ValType{i64})

		err := linker.FuncNew(entry.Module, entry.Name, sig, func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			ints := make([]int64, len(args))
			for i, a := range args {
				ints[i] = a.I64()
			}

			result, err := h.Bridge.Forward(entry.Module, entry.Name, ints)
			if err != nil {
				return nil, wasmtime.NewTrap(err.Error())
			}
			return []wasmtime.Val{wasmtime.ValI64(result)}, nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
