package uniswap_v3_simulator

import "github.com/holiman/uint256"

// getNextSqrtPriceFromAmount0RoundingUp finds the sqrtPriceX96 that
// results from adding (add=true) or removing (add=false) amount of
// token0 at the given liquidity, per §4.4 step 3's zeroForOne branch:
// ceil( L*Q96*sqrtP / (L*Q96 + amount*sqrtP) ).
func getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPX96), nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)

	if add {
		product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPX96)
		if !overflow {
			denominator, carry := new(uint256.Int).AddOverflow(numerator1, product)
			if !carry && denominator.Cmp(numerator1) >= 0 {
				return mulDivUp(numerator1, sqrtPX96, denominator)
			}
		}
		// amount*sqrtPX96 overflows 256 bits: fall back to the
		// algebraically equivalent denominator/sqrtPX96 + amount form.
		denom := new(uint256.Int).Div(numerator1, sqrtPX96)
		denom.Add(denom, amount)
		return divUp(numerator1, denom), nil
	}

	product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPX96)
	if overflow || numerator1.Cmp(product) <= 0 {
		return nil, ErrOverflow
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	return mulDivUp(numerator1, sqrtPX96, denominator)
}

// getNextSqrtPriceFromAmount1RoundingDown implements §4.4 step 3's
// otherwise branch: sqrtP + floor(amount*Q96/L) when adding, or the
// inverse subtraction when removing.
func getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		quotient, err := mulDivDown(amount, Q96, liquidity)
		if err != nil {
			return nil, err
		}
		return new(uint256.Int).Add(sqrtPX96, quotient), nil
	}
	quotient, err := mulDivUp(amount, Q96, liquidity)
	if err != nil {
		return nil, err
	}
	if sqrtPX96.Cmp(quotient) <= 0 {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Sub(sqrtPX96, quotient), nil
}

// getNextSqrtPriceFromInput computes the price that results from
// consuming amountIn of the input token, per §4.4 step 3.
func getNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if zeroForOne {
		return getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// swapStep is the result of one iteration of the swap loop: the price
// the step moved to, and the input/output amounts it consumed/produced.
type swapStep struct {
	sqrtRatioNextX96 *uint256.Int
	amountIn         *uint256.Int
	amountOut        *uint256.Int
}

// computeSwapStep implements §4.4: given a starting price, a
// direction-limited target price, active liquidity, and a remaining
// input amount, compute the step's ending price and the amounts
// exchanged along the way, never overshooting sqrtRatioTargetX96.
func computeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int) (swapStep, error) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0

	var needed *uint256.Int
	var err error
	if zeroForOne {
		needed, err = getAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
	} else {
		needed, err = getAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
	}
	if err != nil {
		return swapStep{}, err
	}

	var next *uint256.Int
	if amountRemaining.Cmp(needed) >= 0 {
		next = new(uint256.Int).Set(sqrtRatioTargetX96)
	} else {
		next, err = getNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, amountRemaining, zeroForOne)
		if err != nil {
			return swapStep{}, err
		}
	}

	reachedTarget := next.Eq(sqrtRatioTargetX96)

	var amountIn, amountOut *uint256.Int
	if zeroForOne {
		if reachedTarget {
			amountIn = needed
		} else {
			amountIn, err = getAmount0Delta(next, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return swapStep{}, err
			}
		}
		amountOut, err = getAmount1Delta(next, sqrtRatioCurrentX96, liquidity, true)
	} else {
		if reachedTarget {
			amountIn = needed
		} else {
			amountIn, err = getAmount1Delta(sqrtRatioCurrentX96, next, liquidity, true)
			if err != nil {
				return swapStep{}, err
			}
		}
		amountOut, err = getAmount0Delta(sqrtRatioCurrentX96, next, liquidity, true)
	}
	if err != nil {
		return swapStep{}, err
	}

	return swapStep{sqrtRatioNextX96: next, amountIn: amountIn, amountOut: amountOut}, nil
}
