package dbhost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xycloo/zephyr-vm-go/host/memmanager"
	"github.com/xycloo/zephyr-vm-go/host/pseudostack"
	"github.com/xycloo/zephyr-vm-go/host/status"
	"github.com/xycloo/zephyr-vm-go/symbol"

	"github.com/bytecodealliance/wasmtime-go/v14"
)

type fakeBackend struct {
	written []Row
	updated []Row
	preds   []Predicate
	readRet []byte
	readErr error
}

func (f *fakeBackend) Write(tenant int64, digest [16]byte, row Row) error {
	f.written = append(f.written, row)
	return nil
}

func (f *fakeBackend) Update(tenant int64, digest [16]byte, row Row, preds []Predicate) error {
	f.updated = append(f.updated, row)
	f.preds = preds
	return nil
}

func (f *fakeBackend) Read(tenant int64, digest [16]byte, columns []int64, preds []Predicate) ([]byte, error) {
	f.preds = preds
	return f.readRet, f.readErr
}

func newTestHost(t *testing.T, perms Permissions, backend Backend) (*Host, *pseudostack.PseudoStack, *memmanager.Manager) {
	t.Helper()
	engine := wasmtime.NewEngine()
	store := wasmtime.NewStore(engine)
	memType := wasmtime.NewMemoryType(1, true, 16)
	memory, err := wasmtime.NewMemory(store, memType)
	require.NoError(t, err)

	mem := memmanager.New()
	mem.Install(store, memory)

	stack := pseudostack.New()
	return New(1, perms, backend, stack, mem), stack, mem
}

func writeBlob(t *testing.T, mem *memmanager.Manager, stack *pseudostack.PseudoStack, data []byte) {
	t.Helper()
	offAfter, length, err := mem.Write(data)
	require.NoError(t, err)
	stack.Push(offAfter - length)
	stack.Push(length)
}

func TestWriteRaw_Success(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	host, stack, mem := newTestHost(t, ReadWrite, backend)

	tableSym, err := symbol.Encode("hello")
	require.NoError(t, err)
	colSym, err := symbol.Encode("tdep")
	require.NoError(t, err)

	stack.Push(tableSym)
	stack.Push(1)
	stack.Push(colSym)
	stack.Push(1)
	writeBlob(t, mem, stack, []byte{0x01})

	st := host.WriteRaw()
	require.Equal(t, status.OK, st)
	require.Len(t, backend.written, 1)
	require.Equal(t, [][]byte{{0x01}}, backend.written[0].Values)

	require.Equal(t, 0, stack.Len())
	require.Equal(t, 0, stack.Cursor())
}

func TestWriteRaw_WriteOnReadOnlyPermission(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	host, _, _ := newTestHost(t, ReadOnly, backend)

	st := host.WriteRaw()
	require.Equal(t, status.WriteOnReadOnly, st)
}

func TestUpdateRaw_UnknownOperator(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	host, stack, mem := newTestHost(t, ReadWrite, backend)

	tableSym, _ := symbol.Encode("hello")
	colSym, _ := symbol.Encode("tdep")

	stack.Push(tableSym)
	stack.Push(1)
	stack.Push(colSym)
	stack.Push(1)
	writeBlob(t, mem, stack, []byte{0x00})

	stack.Push(1) // N_conds
	stack.Push(colSym)
	stack.Push(3) // invalid operator code
	stack.Push(1) // N_cond_args
	writeBlob(t, mem, stack, []byte{0x01})

	st := host.UpdateRaw()
	require.Equal(t, status.OperatorError, st)
	require.Equal(t, 0, stack.Len())
}

func TestReadRaw_NoOptionalPredicates(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{readRet: []byte("rows")}
	host, stack, _ := newTestHost(t, ReadWrite, backend)

	tableSym, _ := symbol.Encode("hello")
	colSym, _ := symbol.Encode("tdep")

	stack.Push(tableSym)
	stack.Push(1)
	stack.Push(colSym)

	offAfter, length, st := host.ReadRaw()
	require.Equal(t, status.OK, st)
	require.Nil(t, backend.preds)
	require.Equal(t, int64(len("rows")), length)
	require.True(t, offAfter >= length)
}

func TestReadRaw_EmptyStack(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	host, _, _ := newTestHost(t, ReadWrite, backend)

	_, _, st := host.ReadRaw()
	require.Equal(t, status.ZephyrQueryMalformed, st)
}

func TestTableDigest_StableAndDeterministic(t *testing.T) {
	t.Parallel()

	d1 := TableDigest(42, 7)
	d2 := TableDigest(42, 7)
	require.Equal(t, d1, d2)

	d3 := TableDigest(43, 7)
	require.NotEqual(t, d1, d3)
}
