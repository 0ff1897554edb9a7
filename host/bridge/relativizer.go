package bridge

import "fmt"

// String names a Kind for diagnostics; guests never see these strings, only
// the numeric tag.
func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindBytes:
		return "bytes"
	case KindDuration:
		return "duration"
	case KindTimepoint:
		return "timepoint"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindVec:
		return "vec"
	case KindMap:
		return "map"
	case KindI64:
		return "i64"
	case KindI128:
		return "i128"
	case KindI256:
		return "i256"
	case KindU64:
		return "u64"
	case KindU128:
		return "u128"
	case KindU256:
		return "u256"
	case KindRawVal:
		return "rawval"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindError:
		return "error"
	case KindStorageTag:
		return "storagetag"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// tagBits is the width of the Kind tag packed into the low bits of every
// wire tagged-value, mirroring the embedded host's own small-value/object
// encoding (spec.md §9). 256 kinds is far more than the closed set this
// runtime is grounded over, leaving room for future kinds without changing
// the wire width.
const tagBits = 8

// encodeTagged packs a Kind tag and payload into a single wire value.
func encodeTagged(k Kind, payload int64) int64 {
	return (payload << tagBits) | int64(k)
}

// decodeTagged splits a wire value back into its Kind tag and payload.
func decodeTagged(raw int64) (Kind, int64) {
	return Kind(raw & (1<<tagBits - 1)), raw >> tagBits
}

// base implements the shared tag-wire encoding (TryFromRaw/MarshalToRaw);
// embedders add the value-space semantics of AbsoluteToRelative and
// RelativeToAbsolute.
type base struct {
	kind Kind
}

func (b base) Kind() Kind { return b.kind }

func (b base) TryFromRaw(raw int64) (int64, bool) {
	k, payload := decodeTagged(raw)
	if k != b.kind {
		return 0, false
	}
	return payload, true
}

func (b base) MarshalToRaw(payload int64) int64 {
	return encodeTagged(b.kind, payload)
}

// ScalarRelativizer handles kinds whose payload is carried inline in the
// tagged value itself — no object handle, no embedded-host object table —
// so relativization is the identity once the tag has been checked. Used
// for the kinds the embedded host never boxes: durations, timepoints,
// plain integers, booleans, void, and errors.
type ScalarRelativizer struct {
	base
}

// NewScalarRelativizer returns a Relativizer for an inline-value Kind.
func NewScalarRelativizer(k Kind) *ScalarRelativizer {
	return &ScalarRelativizer{base{kind: k}}
}

func (s *ScalarRelativizer) AbsoluteToRelative(absolute int64) (int64, error) {
	return absolute, nil
}

func (s *ScalarRelativizer) RelativeToAbsolute(relative int64) (int64, error) {
	return relative, nil
}

// HandleRelativizer rebases an embedded-host object-table handle into a
// guest-visible relative handle scoped to a single Bridge: relative
// handles start at 0 for the first object created after the frame base is
// captured, absolute handles are the embedded host's own, process-wide
// object-table index (spec.md §4.8 invariant 1).
type HandleRelativizer struct {
	base
	frameBase int64
}

// NewHandleRelativizer returns a Relativizer for an object-handle Kind,
// scoped to frameBase (the embedded host's object count at invocation
// start).
func NewHandleRelativizer(k Kind, frameBase int64) *HandleRelativizer {
	return &HandleRelativizer{base{kind: k}, frameBase}
}

func (h *HandleRelativizer) AbsoluteToRelative(absolute int64) (int64, error) {
	rel := absolute - h.frameBase
	if rel < 0 {
		return 0, fmt.Errorf("bridge: absolute handle %d precedes frame base %d", absolute, h.frameBase)
	}
	return rel, nil
}

func (h *HandleRelativizer) RelativeToAbsolute(relative int64) (int64, error) {
	if relative < 0 {
		return 0, fmt.Errorf("bridge: negative relative handle %d", relative)
	}
	return relative + h.frameBase, nil
}

// handleKinds are the Kind values the embedded host represents as object
// handles into its own object table.
var handleKinds = []Kind{
	KindAddress, KindBytes, KindString, KindSymbol,
	KindVec, KindMap,
	KindI128, KindI256, KindU128, KindU256,
	KindRawVal, KindStorageTag,
}

// scalarKinds are the Kind values carried inline in the tagged value, never
// boxed as an embedded-host object.
var scalarKinds = []Kind{
	KindDuration, KindTimepoint, KindI64, KindU64, KindVoid, KindBool, KindError,
}

// DefaultRelativizers returns one Relativizer per Kind in the catalogue's
// closed kind set (spec.md §9), scoped to frameBase.
func DefaultRelativizers(frameBase int64) []Relativizer {
	out := make([]Relativizer, 0, len(handleKinds)+len(scalarKinds))
	for _, k := range handleKinds {
		out = append(out, NewHandleRelativizer(k, frameBase))
	}
	for _, k := range scalarKinds {
		out = append(out, NewScalarRelativizer(k))
	}
	return out
}
