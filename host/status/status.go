// Package status carries the small integer codes that cross the host-call
// ABI boundary back into the guest, alongside the Go sentinel errors that
// the host side returns internally for the same conditions.
package status

import "fmt"

// Status is a small non-zero code returned to the guest across the ABI for
// conditions that are not fatal to the invocation (ABI errors, permission
// errors, backend errors). Zero always means success.
type Status int32

// Status codes. Values are stable across releases: guests link against
// them by number, not by name.
const (
	OK Status = 0

	NoValOnStack         Status = 1
	OperatorError        Status = 2
	ReadOnWriteOnly      Status = 3
	WriteOnReadOnly      Status = 4
	ZephyrQueryError     Status = 5
	ZephyrQueryMalformed Status = 6
	WriteError           Status = 7
	NoTransmitter        Status = 8
	HostConfiguration    Status = 9
)

func (s Status) Error() string {
	switch s {
	case OK:
		return "ok"
	case NoValOnStack:
		return "no value on pseudo-stack"
	case OperatorError:
		return "unknown predicate operator"
	case ReadOnWriteOnly:
		return "read attempted on a write-only database handle"
	case WriteOnReadOnly:
		return "write attempted on a read-only database handle"
	case ZephyrQueryError:
		return "backend query failed"
	case ZephyrQueryMalformed:
		return "backend query malformed"
	case WriteError:
		return "backend write failed"
	case NoTransmitter:
		return "no outbound transmitter attached"
	case HostConfiguration:
		return "host misconfigured for this operation"
	default:
		return fmt.Sprintf("unknown status %d", int32(s))
	}
}
