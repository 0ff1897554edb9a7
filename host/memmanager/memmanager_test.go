package memmanager

import (
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v14"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *wasmtime.Store) {
	t.Helper()
	engine := wasmtime.NewEngine()
	store := wasmtime.NewStore(engine)
	memType := wasmtime.NewMemoryType(1, true, 16)
	memory, err := wasmtime.NewMemory(store, memType)
	require.NoError(t, err)

	m := New()
	m.Install(store, memory)
	return m, store
}

func TestWrite_ThenReadBack_UsingReturnOffsetConvention(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	payload := []byte("hello world")
	offsetAfter, length, err := m.Write(payload)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), length)

	start := offsetAfter - length
	got, err := m.ReadSegment(start, length)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestWrite_AdvancesBumpOffsetMonotonically(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	_, lenA, err := m.Write([]byte("AAAA"))
	require.NoError(t, err)
	offsetAfterB, lenB, err := m.Write([]byte("BB"))
	require.NoError(t, err)

	require.Equal(t, lenA+lenB, offsetAfterB)
}

func TestReadSegment_OutOfBounds(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	_, err := m.ReadSegment(0, 1<<30)
	require.ErrorIs(t, err, ErrBadUpperBounds)
}

func TestReadSegment_NegativeLength(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	_, err := m.ReadSegment(0, -1)
	require.ErrorIs(t, err, ErrNegativeLength)
}
