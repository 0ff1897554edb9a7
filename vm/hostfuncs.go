package vm

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v14"

	"github.com/xycloo/zephyr-vm-go/codec"
	hostpkg "github.com/xycloo/zephyr-vm-go/host"
	"github.com/xycloo/zephyr-vm-go/host/relay"
	"github.com/xycloo/zephyr-vm-go/host/status"
)

const envModule = "env"

// Define registers the host-call ABI table (spec.md §6.2) on linker,
// dispatching each import to h. This is the representative core set: the
// pseudo-stack/memory/database/ledger/relay surface plus the embedded
// contract host bridge forwarders, wired through h.Bridge.Forward.
func Define(linker *wasmtime.Linker, store *wasmtime.Store, h *hostpkg.Host) error {
	funcs := map[string]func(*wasmtime.Caller, []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap){
		"zephyr_stack_push": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			h.Stack.Push(args[0].I64())
			return nil, nil
		},
		"write_raw": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			st := h.DB.WriteRaw()
			return []wasmtime.Val{wasmtime.ValI64(int64(st))}, nil
		},
		"update_raw": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			st := h.DB.UpdateRaw()
			return []wasmtime.Val{wasmtime.ValI64(int64(st))}, nil
		},
		"read_raw": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			off, length, st := h.DB.ReadRaw()
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"read_as_id": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			off, length, st := h.DB.ReadRawAs(args[0].I64())
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"read_contract_data_entry_by_contract_id_and_key": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			id := codec.DecodeID32(args[0].I64(), args[1].I64(), args[2].I64(), args[3].I64())
			keyOffset, keyLen := args[4].I64(), args[5].I64()
			key, err := h.Memory.ReadSegment(keyOffset, keyLen)
			if err != nil {
				return nil, wasmtime.NewTrap(err.Error())
			}
			var idArr [32]byte
			copy(idArr[:], id)
			off, length, st := h.Ledger.ReadContractDataByIDAndKey(idArr, key)
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"read_contract_instance": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			id := codec.DecodeID32(args[0].I64(), args[1].I64(), args[2].I64(), args[3].I64())
			var idArr [32]byte
			copy(idArr[:], id)
			off, length, st := h.Ledger.ReadContractInstance(idArr)
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"read_contract_entries_by_contract": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			id := codec.DecodeID32(args[0].I64(), args[1].I64(), args[2].I64(), args[3].I64())
			var idArr [32]byte
			copy(idArr[:], id)
			off, length, st := h.Ledger.ReadContractEntries(idArr)
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"read_account_from_ledger": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			id := codec.DecodeID32(args[0].I64(), args[1].I64(), args[2].I64(), args[3].I64())
			var idArr [32]byte
			copy(idArr[:], id)
			off, length, st := h.Ledger.ReadAccount(idArr)
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"read_contract_entries_by_contract_to_env": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			id := codec.DecodeID32(args[0].I64(), args[1].I64(), args[2].I64(), args[3].I64())
			var idArr [32]byte
			copy(idArr[:], id)
			handle, st := h.ReadContractEntriesToEnv(idArr)
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(handle),
			}, nil
		},
		"scval_to_valid_host_val": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			hostVal, st := h.ScValToHostVal(args[0].I64(), args[1].I64())
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(hostVal),
			}, nil
		},
		"valid_host_val_to_scval": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			off, length, st := h.ValidHostValToScVal(args[0].I64())
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"soroban_simulate_tx": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			id := codec.DecodeID32(args[2].I64(), args[3].I64(), args[4].I64(), args[5].I64())
			var idArr [32]byte
			copy(idArr[:], id)
			off, length, st := h.SimulateTransaction(args[0].I64(), args[1].I64(), idArr)
			return []wasmtime.Val{
				wasmtime.ValI64(int64(st)),
				wasmtime.ValI64(off),
				wasmtime.ValI64(length),
			}, nil
		},
		"conclude": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			offset, length := args[0].I64(), args[1].I64()
			data, err := h.Memory.ReadSegment(offset, length)
			if err != nil {
				return nil, wasmtime.NewTrap(err.Error())
			}
			h.Conclude(string(data))
			return nil, nil
		},
		"tx_send_message": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			offset, length := args[0].I64(), args[1].I64()
			data, err := h.Memory.ReadSegment(offset, length)
			if err != nil {
				return nil, wasmtime.NewTrap(err.Error())
			}
			st := status.OK
			if sendErr := h.SendMessage(relay.Message(data)); sendErr != nil {
				st = status.HostConfiguration
			}
			return []wasmtime.Val{wasmtime.ValI64(int64(st))}, nil
		},
		"zephyr_logger": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			h.Log(relay.LogInfo, fmt.Sprintf("guest log: %d", args[0].I64()))
			return nil, nil
		},
		"read_ledger_meta": func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			data, err := h.Input()
			if err != nil {
				return nil, wasmtime.NewTrap(err.Error())
			}
			offAfter, length, writeErr := h.Memory.Write(data)
			if writeErr != nil {
				return nil, wasmtime.NewTrap(writeErr.Error())
			}
			return []wasmtime.Val{
				wasmtime.ValI64(offAfter),
				wasmtime.ValI64(length),
			}, nil
		},
	}

	for name, fn := range funcs {
		fn := fn
		if err := linker.FuncNew(envModule, name, funcSigFor(name), func(c *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			return fn(c, args)
		}); err != nil {
			return err
		}
	}

	return defineBridgeForwarders(linker, store, h)
}

// funcSigFor returns the wasmtime FuncType for a given import name,
// matching the arity table in spec.md §6.2. All parameters and results are
// i64 except conclude/zephyr_stack_push/zephyr_logger, whose void-typed
// slots are simply omitted from the result list.
func funcSigFor(name string) *wasmtime.FuncType {
	i64 := wasmtime.NewValType(wasmtime.KindI64)

	switch name {
	case "zephyr_stack_push", "zephyr_logger":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64}, nil)
	case "read_as_id":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64}, []*wasmtime.ValType{i64, i64, i64})
	case "write_raw", "update_raw":
		return wasmtime.NewFuncType(nil, []*wasmtime.ValType{i64})
	case "read_raw":
		return wasmtime.NewFuncType(nil, []*wasmtime.ValType{i64, i64, i64})
	case "read_contract_data_entry_by_contract_id_and_key":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64, i64, i64, i64, i64, i64}, []*wasmtime.ValType{i64, i64, i64})
	case "read_contract_instance", "read_contract_entries_by_contract", "read_account_from_ledger":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64, i64, i64, i64}, []*wasmtime.ValType{i64, i64, i64})
	case "read_contract_entries_by_contract_to_env":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64, i64, i64, i64}, []*wasmtime.ValType{i64, i64})
	case "scval_to_valid_host_val":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64, i64}, []*wasmtime.ValType{i64, i64})
	case "valid_host_val_to_scval":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64}, []*wasmtime.ValType{i64, i64, i64})
	case "soroban_simulate_tx":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64, i64, i64, i64, i64, i64}, []*wasmtime.ValType{i64, i64, i64})
	case "conclude":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64, i64}, nil)
	case "tx_send_message":
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64, i64}, []*wasmtime.ValType{i64})
	case "read_ledger_meta":
		return wasmtime.NewFuncType(nil, []*wasmtime.ValType{i64, i64})
	default:
		return wasmtime.NewFuncType([]*wasmtime.ValType{i64}, []*wasmtime.ValType{i64})
	}
}
