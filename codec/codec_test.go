package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID32_RoundTrip(t *testing.T) {
	t.Parallel()

	original := make([]byte, 32)
	for i := range original {
		original[i] = byte(i * 7)
	}

	p0, p1, p2, p3, err := EncodeID32(original)
	require.NoError(t, err)

	decoded := DecodeID32(p0, p1, p2, p3)
	require.Equal(t, original, decoded)
}

func TestEncodeID32_BadLength(t *testing.T) {
	t.Parallel()
	_, _, _, _, err := EncodeID32(make([]byte, 31))
	require.ErrorIs(t, err, ErrBadLength)
}
