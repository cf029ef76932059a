package uniswap_v3_simulator

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrLiquidityUnderflow is returned when subtracting a liquidity delta
// would drive a liquidity accumulator negative.
var ErrLiquidityUnderflow = errors.New("uniswapv3: liquidity underflow")

// addDelta adds a signed liquidity delta (given as sign and magnitude)
// to an unsigned liquidity accumulator, failing on underflow.
func addDelta(x *uint256.Int, delta *uint256.Int, deltaNegative bool) (*uint256.Int, error) {
	if !deltaNegative {
		sum, overflow := new(uint256.Int).AddOverflow(x, delta)
		if overflow {
			return nil, ErrOverflow
		}
		return sum, nil
	}
	if x.Lt(delta) {
		return nil, ErrLiquidityUnderflow
	}
	return new(uint256.Int).Sub(x, delta), nil
}

// getAmount0Delta returns ceil/floor( L * 2^96 * (B-A) / (A*B) ), the
// token0 owed or released by liquidity L active between sqrtRatioAX96
// and sqrtRatioBX96 (A <= B required by caller ordering, but this
// function tolerates either order).
func getAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(b, a)

	if roundUp {
		inner, err := mulDivUp(numerator1, numerator2, b)
		if err != nil {
			return nil, err
		}
		return divUp(inner, a), nil
	}
	inner, err := mulDivDown(numerator1, numerator2, b)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(inner, a), nil
}

// getAmount1Delta returns ceil/floor( L * (B-A) / 2^96 ), the token1
// owed or released by liquidity L active between sqrtRatioAX96 and
// sqrtRatioBX96.
func getAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	diff := new(uint256.Int).Sub(b, a)
	return mulDiv(diff, liquidity, Q96, roundUp)
}

func divUp(a, b *uint256.Int) *uint256.Int {
	q, rem := new(uint256.Int), new(uint256.Int)
	q.DivMod(a, b, rem)
	if !rem.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

// getLiquidityForAmount0 returns floor( amount0 * A*B / ((B-A) * 2^96) ),
// the liquidity that consumes exactly amount0 of token0 between A and B.
func getLiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0 *uint256.Int) (*uint256.Int, error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	intermediate, err := mulDivDown(a, b, Q96)
	if err != nil {
		return nil, err
	}
	diff := new(uint256.Int).Sub(b, a)
	return mulDivDown(amount0, intermediate, diff)
}

// getLiquidityForAmount1 returns floor( amount1 * 2^96 / (B-A) ), the
// liquidity that consumes exactly amount1 of token1 between A and B.
func getLiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *uint256.Int) (*uint256.Int, error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	diff := new(uint256.Int).Sub(b, a)
	return mulDivDown(amount1, Q96, diff)
}

// getLiquidityForAmounts picks the liquidity-from-amounts case on the
// current price's position relative to [sqrtRatioAX96, sqrtRatioBX96].
func getLiquidityForAmounts(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *uint256.Int) (*uint256.Int, error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	switch {
	case sqrtRatioX96.Cmp(a) <= 0:
		return getLiquidityForAmount0(a, b, amount0)
	case sqrtRatioX96.Cmp(b) >= 0:
		return getLiquidityForAmount1(a, b, amount1)
	default:
		l0, err := getLiquidityForAmount0(sqrtRatioX96, b, amount0)
		if err != nil {
			return nil, err
		}
		l1, err := getLiquidityForAmount1(a, sqrtRatioX96, amount1)
		if err != nil {
			return nil, err
		}
		if l0.Cmp(l1) < 0 {
			return l0, nil
		}
		return l1, nil
	}
}

// getAmountsForLiquidity returns the (amount0, amount1) a liquidity L
// is worth between sqrtRatioAX96 and sqrtRatioBX96 at the current price
// sqrtRatioX96. roundUp selects the rounding direction: callers owing
// these amounts (mint) round up, callers being paid them (burn) round
// down.
func getAmountsForLiquidity(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (amount0, amount1 *uint256.Int, err error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	zero := uint256.NewInt(0)
	switch {
	case sqrtRatioX96.Cmp(a) <= 0:
		amount0, err = getAmount0Delta(a, b, liquidity, roundUp)
		return amount0, zero, err
	case sqrtRatioX96.Cmp(b) >= 0:
		amount1, err = getAmount1Delta(a, b, liquidity, roundUp)
		return zero, amount1, err
	default:
		amount0, err = getAmount0Delta(sqrtRatioX96, b, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		amount1, err = getAmount1Delta(a, sqrtRatioX96, liquidity, roundUp)
		return amount0, amount1, err
	}
}
