package uniswap_v3_simulator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestAddDeltaPositive(t *testing.T) {
	x := uint256.NewInt(100)
	got, err := addDelta(x, uint256.NewInt(50), false)
	require.NoError(t, err)
	require.True(t, got.Eq(uint256.NewInt(150)))
}

func TestAddDeltaNegative(t *testing.T) {
	x := uint256.NewInt(100)
	got, err := addDelta(x, uint256.NewInt(30), true)
	require.NoError(t, err)
	require.True(t, got.Eq(uint256.NewInt(70)))
}

func TestAddDeltaUnderflow(t *testing.T) {
	x := uint256.NewInt(10)
	_, err := addDelta(x, uint256.NewInt(11), true)
	require.ErrorIs(t, err, ErrLiquidityUnderflow)
}

func TestGetAmount0DeltaRoundingDirection(t *testing.T) {
	a, err := GetSqrtRatioAtTick(-1000)
	require.NoError(t, err)
	b, err := GetSqrtRatioAtTick(1000)
	require.NoError(t, err)
	liquidity := uint256.NewInt(123456789)

	down, err := getAmount0Delta(a, b, liquidity, false)
	require.NoError(t, err)
	up, err := getAmount0Delta(a, b, liquidity, true)
	require.NoError(t, err)

	require.True(t, up.Cmp(down) >= 0, "rounding up must never be less than rounding down")
	diff := new(uint256.Int).Sub(up, down)
	require.True(t, diff.Cmp(uint256.NewInt(1)) <= 0, "up/down may only differ by the rounding unit")
}

func TestGetAmount1DeltaRoundingDirection(t *testing.T) {
	a, err := GetSqrtRatioAtTick(-1000)
	require.NoError(t, err)
	b, err := GetSqrtRatioAtTick(1000)
	require.NoError(t, err)
	liquidity := uint256.NewInt(123456789)

	down, err := getAmount1Delta(a, b, liquidity, false)
	require.NoError(t, err)
	up, err := getAmount1Delta(a, b, liquidity, true)
	require.NoError(t, err)

	require.True(t, up.Cmp(down) >= 0)
	diff := new(uint256.Int).Sub(up, down)
	require.True(t, diff.Cmp(uint256.NewInt(1)) <= 0)
}

func TestGetLiquidityForAmountsBelowRange(t *testing.T) {
	lower, err := GetSqrtRatioAtTick(100)
	require.NoError(t, err)
	upper, err := GetSqrtRatioAtTick(200)
	require.NoError(t, err)
	current, err := GetSqrtRatioAtTick(50) // below range: all token0 is used
	require.NoError(t, err)

	amount0 := uint256.NewInt(1_000_000)
	amount1 := uint256.NewInt(1_000_000)

	l, err := getLiquidityForAmounts(current, lower, upper, amount0, amount1)
	require.NoError(t, err)

	lFromAmount0Only, err := getLiquidityForAmount0(lower, upper, amount0)
	require.NoError(t, err)
	require.True(t, l.Eq(lFromAmount0Only), "below range, liquidity must be driven entirely by amount0")
}

func TestGetLiquidityForAmountsAboveRange(t *testing.T) {
	lower, err := GetSqrtRatioAtTick(100)
	require.NoError(t, err)
	upper, err := GetSqrtRatioAtTick(200)
	require.NoError(t, err)
	current, err := GetSqrtRatioAtTick(300) // above range: all token1 is used
	require.NoError(t, err)

	amount0 := uint256.NewInt(1_000_000)
	amount1 := uint256.NewInt(1_000_000)

	l, err := getLiquidityForAmounts(current, lower, upper, amount0, amount1)
	require.NoError(t, err)

	lFromAmount1Only, err := getLiquidityForAmount1(lower, upper, amount1)
	require.NoError(t, err)
	require.True(t, l.Eq(lFromAmount1Only), "above range, liquidity must be driven entirely by amount1")
}

func TestGetAmountsForLiquidityRoundingDirection(t *testing.T) {
	lower, err := GetSqrtRatioAtTick(-500)
	require.NoError(t, err)
	upper, err := GetSqrtRatioAtTick(500)
	require.NoError(t, err)
	current, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	liquidity := uint256.NewInt(987654321)

	a0Down, a1Down, err := getAmountsForLiquidity(current, lower, upper, liquidity, false)
	require.NoError(t, err)
	a0Up, a1Up, err := getAmountsForLiquidity(current, lower, upper, liquidity, true)
	require.NoError(t, err)

	require.True(t, a0Up.Cmp(a0Down) >= 0)
	require.True(t, a1Up.Cmp(a1Down) >= 0)
}

func TestGetAmountsForLiquidityOutOfRangeYieldsSingleToken(t *testing.T) {
	lower, err := GetSqrtRatioAtTick(100)
	require.NoError(t, err)
	upper, err := GetSqrtRatioAtTick(200)
	require.NoError(t, err)
	current, err := GetSqrtRatioAtTick(50)
	require.NoError(t, err)
	liquidity := uint256.NewInt(1_000_000)

	amount0, amount1, err := getAmountsForLiquidity(current, lower, upper, liquidity, false)
	require.NoError(t, err)
	require.False(t, amount0.IsZero())
	require.True(t, amount1.IsZero())
}
