package uniswap_v3_simulator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestComputeSwapStepReachesTarget(t *testing.T) {
	current, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := GetSqrtRatioAtTick(-100) // zeroForOne: price falls
	require.NoError(t, err)
	liquidity := uint256.NewInt(1_000_000_000_000)

	needed, err := getAmount0Delta(target, current, liquidity, true)
	require.NoError(t, err)

	// amountRemaining well in excess of what's needed to reach target.
	remaining := new(uint256.Int).Add(needed, uint256.NewInt(1_000_000))

	step, err := computeSwapStep(current, target, liquidity, remaining)
	require.NoError(t, err)
	require.True(t, step.sqrtRatioNextX96.Eq(target))
	require.True(t, step.amountIn.Eq(needed))
}

func TestComputeSwapStepPartialFill(t *testing.T) {
	current, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := GetSqrtRatioAtTick(-100)
	require.NoError(t, err)
	liquidity := uint256.NewInt(1_000_000_000_000)

	needed, err := getAmount0Delta(target, current, liquidity, true)
	require.NoError(t, err)

	// amountRemaining far short of what's needed to reach target.
	remaining := new(uint256.Int).Div(needed, uint256.NewInt(10))
	require.False(t, remaining.IsZero())

	step, err := computeSwapStep(current, target, liquidity, remaining)
	require.NoError(t, err)
	require.False(t, step.sqrtRatioNextX96.Eq(target), "a short fill must not reach the target price")
	require.True(t, step.sqrtRatioNextX96.Cmp(current) < 0, "zeroForOne step must move price down")
	require.True(t, step.amountIn.Cmp(remaining) <= 0, "consumed input must not exceed what was offered")
}

func TestComputeSwapStepOtherDirectionReachesTarget(t *testing.T) {
	current, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := GetSqrtRatioAtTick(100) // !zeroForOne: price rises
	require.NoError(t, err)
	liquidity := uint256.NewInt(1_000_000_000_000)

	needed, err := getAmount1Delta(current, target, liquidity, true)
	require.NoError(t, err)
	remaining := new(uint256.Int).Add(needed, uint256.NewInt(1_000_000))

	step, err := computeSwapStep(current, target, liquidity, remaining)
	require.NoError(t, err)
	require.True(t, step.sqrtRatioNextX96.Eq(target))
	require.True(t, step.amountIn.Eq(needed))
}

func TestGetNextSqrtPriceFromInputZeroAmount(t *testing.T) {
	current, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	liquidity := uint256.NewInt(1_000_000)
	next, err := getNextSqrtPriceFromInput(current, liquidity, uint256.NewInt(0), true)
	require.NoError(t, err)
	require.True(t, next.Eq(current))
}
