package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaggedValue_RoundTrip(t *testing.T) {
	raw := encodeTagged(KindVec, 42)
	k, payload := decodeTagged(raw)
	require.Equal(t, KindVec, k)
	require.EqualValues(t, 42, payload)
}

func TestScalarRelativizer_IdentityAndTagCheck(t *testing.T) {
	r := NewScalarRelativizer(KindI64)

	abs, err := r.AbsoluteToRelative(7)
	require.NoError(t, err)
	require.EqualValues(t, 7, abs)

	rel, err := r.RelativeToAbsolute(7)
	require.NoError(t, err)
	require.EqualValues(t, 7, rel)

	raw := r.MarshalToRaw(7)
	payload, ok := r.TryFromRaw(raw)
	require.True(t, ok)
	require.EqualValues(t, 7, payload)

	_, ok = r.TryFromRaw(encodeTagged(KindU64, 7))
	require.False(t, ok)
}

func TestHandleRelativizer_RebasesAroundFrameBase(t *testing.T) {
	r := NewHandleRelativizer(KindVec, 10)

	rel, err := r.AbsoluteToRelative(13)
	require.NoError(t, err)
	require.EqualValues(t, 3, rel)

	abs, err := r.RelativeToAbsolute(3)
	require.NoError(t, err)
	require.EqualValues(t, 13, abs)

	_, err = r.AbsoluteToRelative(5)
	require.Error(t, err)

	_, err = r.RelativeToAbsolute(-1)
	require.Error(t, err)
}

func newTestBridge() *Bridge {
	host := NewStubEmbeddedHost()
	return NewDefault(host, DefaultCatalogue())
}

func TestBridge_VecRoundTrip(t *testing.T) {
	b := newTestBridge()

	vecRaw, err := b.Forward("v", "vec_new", nil)
	require.NoError(t, err)

	boxedRaw, err := b.Forward("i", "obj_from_i64", []int64{b.relativizer[KindI64].MarshalToRaw(99)})
	require.NoError(t, err)

	_, err = b.Forward("v", "vec_push_back", []int64{vecRaw, boxedRaw})
	require.NoError(t, err)

	lenRaw, err := b.Forward("v", "vec_len", []int64{vecRaw})
	require.NoError(t, err)
	lenPayload, ok := b.relativizer[KindI64].TryFromRaw(lenRaw)
	require.True(t, ok)
	require.EqualValues(t, 1, lenPayload)

	gotRaw, err := b.Forward("v", "vec_get", []int64{vecRaw, b.relativizer[KindI64].MarshalToRaw(0)})
	require.NoError(t, err)

	backRaw, err := b.Forward("i", "obj_to_i64", []int64{gotRaw})
	require.NoError(t, err)
	backPayload, ok := b.relativizer[KindI64].TryFromRaw(backRaw)
	require.True(t, ok)
	require.EqualValues(t, 99, backPayload)
}

func TestBridge_MapRoundTrip(t *testing.T) {
	b := newTestBridge()

	mapRaw, err := b.Forward("m", "map_new", nil)
	require.NoError(t, err)

	keyRaw, err := b.Forward("i", "obj_from_i64", []int64{b.relativizer[KindI64].MarshalToRaw(1)})
	require.NoError(t, err)
	valRaw, err := b.Forward("i", "obj_from_i64", []int64{b.relativizer[KindI64].MarshalToRaw(2)})
	require.NoError(t, err)

	_, err = b.Forward("m", "map_put", []int64{mapRaw, keyRaw, valRaw})
	require.NoError(t, err)

	gotRaw, err := b.Forward("m", "map_get", []int64{mapRaw, keyRaw})
	require.NoError(t, err)
	require.Equal(t, valRaw, gotRaw)
}

func TestBridge_Forward_BadArgTagFails(t *testing.T) {
	b := newTestBridge()

	vecRaw, err := b.Forward("v", "vec_new", nil)
	require.NoError(t, err)

	// vec_len expects a KindVec argument; tag it as KindMap instead.
	badTag := encodeTagged(KindMap, vecRaw>>tagBits)
	_, err = b.Forward("v", "vec_len", []int64{badTag})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrBadValueTag))
}

func TestBridge_Forward_UnknownFunction(t *testing.T) {
	b := newTestBridge()
	_, err := b.Forward("v", "vec_reverse", nil)
	require.True(t, errors.Is(err, ErrUnknownFunction))
}

func TestBridge_ScValHostValRoundTrip(t *testing.T) {
	b := newTestBridge()

	hostVal, err := b.ScValToHostVal([]byte("hello"))
	require.NoError(t, err)

	back, err := b.HostValToScVal(hostVal)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), back)
}

func TestBridge_ToEnvMap(t *testing.T) {
	b := newTestBridge()

	raw, err := b.ToEnvMap([][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)
	require.NotZero(t, raw)
}

func TestBridge_SimulateTransaction(t *testing.T) {
	b := newTestBridge()

	var account [32]byte
	copy(account[:], "source-account")

	out, err := b.SimulateTransaction([]byte("hostfn"), account, 42)
	require.NoError(t, err)
	require.NotEmpty(t, out)
}
