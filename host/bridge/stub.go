package bridge

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// objKind distinguishes the handful of object shapes StubEmbeddedHost's
// object table holds. It is purely internal bookkeeping and unrelated to
// the guest-visible Kind tag.
type objKind int

const (
	objVec objKind = iota
	objMap
	objBytes
	objBoxed
	objI128
)

type object struct {
	kind objKind

	vec []int64

	mapKeys []int64
	mapVals []int64

	bytes []byte

	scalar uint64

	hi, lo int64
}

// StubEmbeddedHost is a self-contained, in-process default implementation
// of EmbeddedHost: it keeps its own object table (vecs, maps, byte
// buffers, boxed scalars) and answers the catalogue's forwarded calls
// against it. It stands in for the embedded smart-contract host, whose own
// internals are out of scope (spec.md §1) — a deployment wires a real
// binding over EmbeddedHost in its place by setting exec.Wrapper.Embedded.
type StubEmbeddedHost struct {
	mu      sync.Mutex
	objects []*object
}

// NewStubEmbeddedHost returns an empty StubEmbeddedHost.
func NewStubEmbeddedHost() *StubEmbeddedHost {
	return &StubEmbeddedHost{}
}

func (h *StubEmbeddedHost) newObject(o *object) int64 {
	h.objects = append(h.objects, o)
	return int64(len(h.objects) - 1)
}

func (h *StubEmbeddedHost) get(handle int64, want objKind) (*object, error) {
	if handle < 0 || int(handle) >= len(h.objects) {
		return nil, fmt.Errorf("bridge: invalid object handle %d", handle)
	}
	obj := h.objects[handle]
	if obj.kind != want {
		return nil, fmt.Errorf("bridge: object handle %d is not of the expected kind", handle)
	}
	return obj, nil
}

// ObjectCount implements EmbeddedHost.
func (h *StubEmbeddedHost) ObjectCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int64(len(h.objects))
}

// ResetBudgetUnlimited implements EmbeddedHost. The stub never meters
// calls, so there is nothing to reset.
func (h *StubEmbeddedHost) ResetBudgetUnlimited() {}

// Call implements EmbeddedHost against the default catalogue
// (DefaultCatalogue).
func (h *StubEmbeddedHost) Call(name string, args []int64) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch name {
	case "vec_new":
		return h.newObject(&object{kind: objVec}), nil
	case "vec_push_back":
		obj, err := h.get(args[0], objVec)
		if err != nil {
			return 0, err
		}
		obj.vec = append(obj.vec, args[1])
		return args[0], nil
	case "vec_get":
		obj, err := h.get(args[0], objVec)
		if err != nil {
			return 0, err
		}
		idx := args[1]
		if idx < 0 || int(idx) >= len(obj.vec) {
			return 0, fmt.Errorf("bridge: vec index %d out of range", idx)
		}
		return obj.vec[idx], nil
	case "vec_len":
		obj, err := h.get(args[0], objVec)
		if err != nil {
			return 0, err
		}
		return int64(len(obj.vec)), nil

	case "map_new":
		return h.newObject(&object{kind: objMap}), nil
	case "map_put":
		obj, err := h.get(args[0], objMap)
		if err != nil {
			return 0, err
		}
		key, val := args[1], args[2]
		for i, k := range obj.mapKeys {
			if k == key {
				obj.mapVals[i] = val
				return args[0], nil
			}
		}
		obj.mapKeys = append(obj.mapKeys, key)
		obj.mapVals = append(obj.mapVals, val)
		return args[0], nil
	case "map_get":
		obj, err := h.get(args[0], objMap)
		if err != nil {
			return 0, err
		}
		key := args[1]
		for i, k := range obj.mapKeys {
			if k == key {
				return obj.mapVals[i], nil
			}
		}
		return 0, fmt.Errorf("bridge: map key %d not found", key)
	case "map_len":
		obj, err := h.get(args[0], objMap)
		if err != nil {
			return 0, err
		}
		return int64(len(obj.mapKeys)), nil

	case "bytes_new":
		return h.newObject(&object{kind: objBytes}), nil
	case "bytes_push":
		obj, err := h.get(args[0], objBytes)
		if err != nil {
			return 0, err
		}
		obj.bytes = append(obj.bytes, byte(args[1]))
		return args[0], nil
	case "bytes_len":
		obj, err := h.get(args[0], objBytes)
		if err != nil {
			return 0, err
		}
		return int64(len(obj.bytes)), nil

	case "address_from_u64":
		return h.newObject(&object{kind: objBoxed, scalar: uint64(args[0])}), nil
	case "address_to_u64":
		obj, err := h.get(args[0], objBoxed)
		if err != nil {
			return 0, err
		}
		return int64(obj.scalar), nil

	case "obj_from_i128_pieces":
		return h.newObject(&object{kind: objI128, hi: args[0], lo: args[1]}), nil
	case "i128_hi":
		obj, err := h.get(args[0], objI128)
		if err != nil {
			return 0, err
		}
		return obj.hi, nil
	case "i128_lo":
		obj, err := h.get(args[0], objI128)
		if err != nil {
			return 0, err
		}
		return obj.lo, nil

	case "obj_from_i64":
		return h.newObject(&object{kind: objBoxed, scalar: uint64(args[0])}), nil
	case "obj_to_i64":
		obj, err := h.get(args[0], objBoxed)
		if err != nil {
			return 0, err
		}
		return int64(obj.scalar), nil

	case "duration_from_u64", "timepoint_from_u64":
		return args[0], nil

	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
}

// ToEnvMap implements EmbeddedHost for
// read_contract_entries_by_contract_to_env: it boxes every entry as a byte
// object keyed by its index, and wraps the pairs in a fresh map object.
func (h *StubEmbeddedHost) ToEnvMap(entries [][]byte) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := &object{kind: objMap}
	for i, e := range entries {
		key := h.newObject(&object{kind: objBoxed, scalar: uint64(i)})
		val := h.newObject(&object{kind: objBytes, bytes: append([]byte(nil), e...)})
		m.mapKeys = append(m.mapKeys, key)
		m.mapVals = append(m.mapVals, val)
	}
	return h.newObject(m), nil
}

// ScValToHostVal implements EmbeddedHost for scval_to_valid_host_val by
// boxing the serialized blob as a bytes object: the stub does not decode
// the external scval format (spec.md §1, binary compatibility with any
// specific blockchain XDR schema is out of scope).
func (h *StubEmbeddedHost) ScValToHostVal(scval []byte) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.newObject(&object{kind: objBytes, bytes: append([]byte(nil), scval...)}), nil
}

// HostValToScVal implements EmbeddedHost for valid_host_val_to_scval,
// inverting ScValToHostVal for bytes objects and serializing boxed scalars
// as 8 big-endian bytes.
func (h *StubEmbeddedHost) HostValToScVal(hostVal int64) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if hostVal < 0 || int(hostVal) >= len(h.objects) {
		return nil, fmt.Errorf("bridge: invalid object handle %d", hostVal)
	}
	obj := h.objects[hostVal]
	switch obj.kind {
	case objBytes:
		return append([]byte(nil), obj.bytes...), nil
	case objBoxed:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, obj.scalar)
		return buf, nil
	default:
		return nil, fmt.Errorf("bridge: cannot serialize object kind %d to scval", obj.kind)
	}
}

// SimulateTransaction implements EmbeddedHost for soroban_simulate_tx. The
// stub does not run a real simulation engine (spec.md §1); it returns a
// deterministic envelope of the request so callers exercising the ABI seam
// see a stable, well-formed response.
func (h *StubEmbeddedHost) SimulateTransaction(hostFn []byte, sourceAccount [32]byte, bucketListSize uint64) ([]byte, error) {
	out := make([]byte, 0, 8+len(sourceAccount)+len(hostFn))
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], bucketListSize)
	out = append(out, sizeBuf[:]...)
	out = append(out, sourceAccount[:]...)
	out = append(out, hostFn...)
	return out, nil
}
