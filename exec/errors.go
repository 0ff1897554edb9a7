package exec

import "errors"

// ErrExecutionPanicked signals that the blocking worker running a guest
// invocation recovered from a panic (outside the guest itself: in the VM
// construction, a host call, or a backend driver).
var ErrExecutionPanicked = errors.New("exec: execution panicked")

// ErrNoSuchProgram signals that the requested binary id could not be
// resolved to module bytes.
var ErrNoSuchProgram = errors.New("exec: no such program")
