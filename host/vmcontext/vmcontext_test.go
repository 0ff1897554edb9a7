package vmcontext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeVM struct {
	live bool
}

func (f *fakeVM) Live() bool { return f.live }

func TestBind_SecondAttemptFails(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Bind(&fakeVM{live: true}))

	err := c.Bind(&fakeVM{live: true})
	require.ErrorIs(t, err, ErrContextAlreadyExists)
}

func TestUpgrade_NoContext(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Upgrade()
	require.ErrorIs(t, err, ErrNoContext)
}

func TestUpgrade_DeadVM(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Bind(&fakeVM{live: false}))

	_, err := c.Upgrade()
	require.ErrorIs(t, err, ErrCannotUpgradeRef)
}

func TestUpgrade_LiveVM(t *testing.T) {
	t.Parallel()

	c := New()
	vm := &fakeVM{live: true}
	require.NoError(t, c.Bind(vm))

	got, err := c.Upgrade()
	require.NoError(t, err)
	require.Same(t, vm, got)
}
