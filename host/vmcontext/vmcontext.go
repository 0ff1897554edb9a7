// Package vmcontext binds a Host to the single VM that owns it, without the
// Host itself owning the VM (the VM owns the Host via the engine's store
// user-data; this is the back-reference that closes the cycle). The
// reference only reports whether the VM is still live; host calls reach
// guest memory through the Host's own memory manager, not through it.
package vmcontext

import "errors"

// ErrContextAlreadyExists signals a second attempt to bind a VM reference
// to a Context that already has one.
var ErrContextAlreadyExists = errors.New("vmcontext: context already bound to a vm")

// ErrNoContext signals that no VM reference has been bound yet.
var ErrNoContext = errors.New("vmcontext: no vm bound")

// ErrCannotUpgradeRef signals that the bound VM reference is no longer
// live (the VM has been torn down).
var ErrCannotUpgradeRef = errors.New("vmcontext: vm reference is no longer live")

// VMRef is the narrow view of a VM held by a Context: it reports only
// whether the VM is still live and does not expose the VM's memory manager.
// It is implemented by *vm.VM, but declared here to avoid an import cycle
// between host and vm.
type VMRef interface {
	Live() bool
}

// Context holds a non-owning reference to the VM that owns this Host. Go
// has no built-in weak pointer; the VM is expected to clear its own
// liveness (via Live() returning false) once torn down, and Context.Upgrade
// honors that rather than dereferencing a dangling pointer.
type Context struct {
	vm VMRef
}

// New returns an empty, unbound Context.
func New() *Context {
	return &Context{}
}

// Bind sets the VM reference exactly once. A second call fails with
// ErrContextAlreadyExists.
func (c *Context) Bind(vm VMRef) error {
	if c.vm != nil {
		return ErrContextAlreadyExists
	}
	c.vm = vm
	return nil
}

// Upgrade returns the bound VM reference, failing if none is bound or if
// the bound VM is no longer live.
func (c *Context) Upgrade() (VMRef, error) {
	if c.vm == nil {
		return nil, ErrNoContext
	}
	if !c.vm.Live() {
		return nil, ErrCannotUpgradeRef
	}
	return c.vm, nil
}
