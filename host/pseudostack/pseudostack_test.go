package pseudostack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushAndDrain(t *testing.T) {
	t.Parallel()

	s := New()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	for _, want := range []int64{1, 2, 3} {
		got, err := s.GetWithStep()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := s.GetWithStep()
	require.ErrorIs(t, err, ErrNoValOnStack)
}

func TestClear_ResetsCursorAndContents(t *testing.T) {
	t.Parallel()

	s := New()
	s.Push(42)
	_, err := s.GetWithStep()
	require.NoError(t, err)

	s.Clear()
	require.Equal(t, 0, s.Len())
	require.Equal(t, 0, s.Cursor())

	_, err = s.GetWithStep()
	require.ErrorIs(t, err, ErrNoValOnStack)
}

func TestLoad_ReturnsSnapshotIndependentOfCursor(t *testing.T) {
	t.Parallel()

	s := New()
	s.Push(7)
	s.Push(8)
	_, err := s.GetWithStep()
	require.NoError(t, err)

	snapshot := s.Load()
	require.Equal(t, []int64{7, 8}, snapshot)
}
