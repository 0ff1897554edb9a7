package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{"a", "tdep", "hello", "_under_1", "Az09_mix", "123456789"}
	for _, s := range cases {
		s := s
		t.Run(s, func(t *testing.T) {
			t.Parallel()
			code, err := Encode(s)
			require.NoError(t, err)

			decoded, err := Decode(code)
			require.NoError(t, err)
			require.Equal(t, s, decoded)
		})
	}
}

func TestEncode_TooLong(t *testing.T) {
	t.Parallel()
	_, err := Encode("0123456789")
	require.ErrorIs(t, err, ErrTooLong)
}

func TestEncode_InvalidChar(t *testing.T) {
	t.Parallel()
	_, err := Encode("bad-char")
	require.ErrorIs(t, err, ErrInvalidChar)
}

func TestDecode_InvalidCode(t *testing.T) {
	t.Parallel()
	_, err := Decode(0)
	require.ErrorIs(t, err, ErrInvalidCode)
}
