package posting_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lexi/internal/posting"
)

func allCodecs() []posting.Codec {
	return []posting.Codec{
		posting.NewVByte(),
		posting.NewGamma(),
		posting.NewDelta(),
		posting.NewGolomb(0),
		posting.NewRice(0),
		posting.NewInterpolative(),
		posting.NewSimple9(),
		posting.NewLLRun(),
		posting.NewNull(),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	cases := map[string][]uint64{
		"single":          {1},
		"two":             {1, 2},
		"small_gaps":      {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		"large_gaps":      {10, 5000, 9_000_000, 9_000_001, 50_000_000},
		"mixed":           {1, 3, 4, 8, 16, 17, 18, 1000, 1_000_000, 1_000_001},
		"powers_of_two":   {1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
		"huge_single_gap": {1, 1 << 40},
	}

	for _, c := range allCodecs() {
		c := c
		for name, xs := range cases {
			xs := xs
			t.Run(c.ID().String()+"/"+name, func(t *testing.T) {
				encoded, err := c.Encode(xs)
				require.NoError(t, err)
				require.NotEmpty(t, encoded)

				decoded, err := c.Decode(encoded)
				require.NoError(t, err)
				require.Equal(t, xs, decoded)
			})
		}
	}
}

func TestCodecRejectsEmptyAndNonMonotone(t *testing.T) {
	for _, c := range allCodecs() {
		_, err := c.Encode(nil)
		require.ErrorIs(t, err, posting.ErrEmptyInput)

		_, err = c.Encode([]uint64{5, 5})
		require.ErrorIs(t, err, posting.ErrNotMonotone)

		_, err = c.Encode([]uint64{5, 3})
		require.ErrorIs(t, err, posting.ErrNotMonotone)
	}
}

func TestRegistryDispatchesOnTag(t *testing.T) {
	reg := posting.NewRegistry()
	xs := []uint64{1, 100, 10_000}

	for _, c := range allCodecs() {
		encoded, err := c.Encode(xs)
		require.NoError(t, err)

		decoded, err := reg.Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, xs, decoded)
	}
}

func TestRegistryRejectsUnknownMethod(t *testing.T) {
	reg := posting.NewRegistry()
	_, err := reg.Decode([]byte{0xFF})
	require.Error(t, err)

	_, err = reg.Decode(nil)
	require.Error(t, err)
}

func TestEncodeDecodeTF(t *testing.T) {
	require.Equal(t, uint32(0), posting.EncodeTF(0, 6))
	require.Equal(t, uint32(0), posting.DecodeTF(0))

	b := posting.EncodeTF(1, 6)
	require.Equal(t, uint32(1), b)

	// Saturation: an enormous frequency still fits in the configured bits.
	saturated := posting.EncodeTF(1<<30, 4)
	require.LessOrEqual(t, saturated, uint32(1<<4-1))
}
