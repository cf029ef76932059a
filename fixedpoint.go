package uniswap_v3_simulator

import (
	"errors"

	"github.com/holiman/uint256"
)

// Q96 is 2^96, the fixed-point scale of sqrtPriceX96 values (Q64.96).
var Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

// Q128 is 2^128, the fixed-point scale of Q128.128 values.
var Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// ErrOverflow is returned by mulDiv when the exact result does not fit
// in 256 bits, or when the divisor is zero.
var ErrOverflow = errors.New("uniswapv3: mulDiv overflow")

// mulDivDown computes floor(a*b/denom) using a 512-bit intermediate
// product, failing if the quotient does not fit back into 256 bits.
func mulDivDown(a, b, denom *uint256.Int) (*uint256.Int, error) {
	if denom.IsZero() {
		return nil, ErrOverflow
	}
	q := new(uint256.Int)
	_, overflow := q.MulDivOverflow(a, b, denom)
	if overflow {
		return nil, ErrOverflow
	}
	return q, nil
}

// mulDivUp computes ceil(a*b/denom).
func mulDivUp(a, b, denom *uint256.Int) (*uint256.Int, error) {
	q, err := mulDivDown(a, b, denom)
	if err != nil {
		return nil, err
	}
	// remainder = a*b mod denom, computed via MulMod (no overflow since
	// the modulus step is done mod denom on the 512-bit product).
	rem := new(uint256.Int).MulMod(a, b, denom)
	if !rem.IsZero() {
		one := uint256.NewInt(1)
		sum, carry := new(uint256.Int).AddOverflow(q, one)
		if carry {
			return nil, ErrOverflow
		}
		return sum, nil
	}
	return q, nil
}

// mulDiv computes a*b/denom with the requested rounding direction using
// a 512-bit intermediate product. Fails with ErrOverflow if denom is
// zero or the (rounded) quotient does not fit in 256 bits.
func mulDiv(a, b, denom *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if roundUp {
		return mulDivUp(a, b, denom)
	}
	return mulDivDown(a, b, denom)
}
