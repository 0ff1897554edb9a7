// Package memmanager wraps the guest's linear memory and the bump offset
// used for host-to-guest write-back.
package memmanager

import (
	"errors"
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v14"
)

// ErrBadBounds signals that an offset/length pair falls outside the
// memory's current extent.
var ErrBadBounds = errors.New("memmanager: bad bounds")

// ErrBadLowerBounds signals an offset below zero.
var ErrBadLowerBounds = fmt.Errorf("%w (lower)", ErrBadBounds)

// ErrBadUpperBounds signals a requested end beyond the memory, even after
// growth.
var ErrBadUpperBounds = fmt.Errorf("%w (upper)", ErrBadBounds)

// ErrNegativeLength signals a negative length argument.
var ErrNegativeLength = errors.New("memmanager: negative length")

// ErrArithOverflow signals that advancing the bump offset would overflow.
var ErrArithOverflow = errors.New("memmanager: bump offset overflow")

// ErrNoMemory signals that Install was never called.
var ErrNoMemory = errors.New("memmanager: no memory installed")

// Manager wraps a wasmtime Memory handle plus the bump offset used by
// write-back. It is installed into the host exactly once, after the VM
// acquires the guest module's "memory" export.
type Manager struct {
	store  *wasmtime.Store
	memory *wasmtime.Memory
	offset uint32
}

// New returns an uninstalled Manager; call Install once the VM has the
// guest's memory export.
func New() *Manager {
	return &Manager{}
}

// Install attaches the guest's linear memory. Called once during VM
// construction (spec C10 step 5).
func (m *Manager) Install(store *wasmtime.Store, memory *wasmtime.Memory) {
	m.store = store
	m.memory = memory
	m.offset = 0
}

// ReadSegment copies length bytes from the guest's linear memory starting
// at offset.
func (m *Manager) ReadSegment(offset, length int64) ([]byte, error) {
	if m.memory == nil {
		return nil, ErrNoMemory
	}
	if length == 0 {
		return []byte{}, nil
	}
	if length < 0 {
		return nil, ErrNegativeLength
	}
	if offset < 0 {
		return nil, ErrBadLowerBounds
	}

	data := m.memory.UnsafeData(m.store)
	memLen := int64(len(data))
	end := offset + length

	if offset > memLen || end > memLen {
		return nil, ErrBadUpperBounds
	}

	result := make([]byte, length)
	copy(result, data[offset:end])
	return result, nil
}

// Write allocates length bytes starting at the current bump offset, writes
// them, advances the offset, and returns the new (post-write) offset and
// the length, per the return-offset convention: the guest computes the
// start of the written region as offsetAfter-length.
func (m *Manager) Write(data []byte) (offsetAfter int64, length int64, err error) {
	if m.memory == nil {
		return 0, 0, ErrNoMemory
	}

	n := uint32(len(data))
	start := m.offset
	end := start + n
	if end < start {
		return 0, 0, ErrArithOverflow
	}

	if err := m.ensureCapacity(end); err != nil {
		return 0, 0, err
	}

	mem := m.memory.UnsafeData(m.store)
	copy(mem[start:end], data)
	m.offset = end

	return int64(end), int64(n), nil
}

// WriteAt writes data at an absolute position without advancing the bump
// offset, used by the embedded contract host bridge.
func (m *Manager) WriteAt(position int64, data []byte) (int64, error) {
	if m.memory == nil {
		return 0, ErrNoMemory
	}
	if position < 0 {
		return 0, ErrBadLowerBounds
	}

	end := position + int64(len(data))
	if err := m.ensureCapacity(uint32(end)); err != nil {
		return 0, err
	}

	mem := m.memory.UnsafeData(m.store)
	copy(mem[position:end], data)
	return position + int64(len(data)), nil
}

// ensureCapacity grows the memory by whole pages until it can hold
// requiredLen bytes.
func (m *Manager) ensureCapacity(requiredLen uint32) error {
	data := m.memory.UnsafeData(m.store)
	for uint32(len(data)) < requiredLen {
		if _, err := m.memory.Grow(m.store, 1); err != nil {
			return fmt.Errorf("memmanager: grow memory: %w", err)
		}
		data = m.memory.UnsafeData(m.store)
	}
	return nil
}

// Offset reports the current bump offset.
func (m *Manager) Offset() int64 {
	return int64(m.offset)
}
