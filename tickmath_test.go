package uniswap_v3_simulator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestGetSqrtRatioAtTickZero(t *testing.T) {
	ratio, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	require.True(t, ratio.Eq(Q96), "sqrtRatio at tick 0 must be exactly Q96, got %s", ratio)
}

func TestGetSqrtRatioAtTickKnownValues(t *testing.T) {
	cases := []struct {
		tick  int32
		ratio string
	}{
		{1, "79232123823359799118286999567"},
		{-1, "79224201403219477170569942574"},
	}
	for _, c := range cases {
		ratio, err := GetSqrtRatioAtTick(c.tick)
		require.NoError(t, err)
		want, err := uint256.FromDecimal(c.ratio)
		require.NoError(t, err)
		require.True(t, ratio.Eq(want), "tick %d: got %s want %s", c.tick, ratio, c.ratio)
	}
}

func TestGetSqrtRatioAtTickOutOfRange(t *testing.T) {
	_, err := GetSqrtRatioAtTick(MaxTick + 1)
	require.ErrorIs(t, err, ErrTickOutOfRange)

	_, err = GetSqrtRatioAtTick(MinTick - 1)
	require.ErrorIs(t, err, ErrTickOutOfRange)
}

func TestMinMaxSqrtRatioMatchBounds(t *testing.T) {
	minRatio, err := GetSqrtRatioAtTick(MinTick)
	require.NoError(t, err)
	require.True(t, minRatio.Eq(MinSqrtRatio))

	maxRatio, err := GetSqrtRatioAtTick(MaxTick)
	require.NoError(t, err)
	require.True(t, maxRatio.Eq(MaxSqrtRatio))
}

func TestGetTickAtSqrtRatioRoundTrip(t *testing.T) {
	ticks := []int32{0, 1, -1, 100, -100, 85176, -85176, 84222, 86129, MinTick, MaxTick - 1}
	for _, tick := range ticks {
		ratio, err := GetSqrtRatioAtTick(tick)
		require.NoError(t, err)
		got, err := GetTickAtSqrtRatio(ratio)
		require.NoError(t, err)
		require.Equal(t, tick, got, "round trip failed for tick %d", tick)
	}
}

func TestGetTickAtSqrtRatioOutOfRange(t *testing.T) {
	_, err := GetTickAtSqrtRatio(new(uint256.Int).Sub(MinSqrtRatio, uint256.NewInt(1)))
	require.ErrorIs(t, err, ErrTickOutOfRange)

	_, err = GetTickAtSqrtRatio(MaxSqrtRatio)
	require.ErrorIs(t, err, ErrTickOutOfRange)
}

func TestGetSqrtRatioAtTickMonotonic(t *testing.T) {
	prev, err := GetSqrtRatioAtTick(-10)
	require.NoError(t, err)
	for tick := int32(-9); tick <= 10; tick++ {
		cur, err := GetSqrtRatioAtTick(tick)
		require.NoError(t, err)
		require.True(t, cur.Cmp(prev) > 0, "sqrtRatio must strictly increase with tick")
		prev = cur
	}
}
