package uniswap_v3_simulator

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// MinTick and MaxTick bound the signed tick index addressable by the
// pool; sqrtPriceX96 is only defined for ticks in this closed range.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// MinSqrtRatio and MaxSqrtRatio are GetSqrtRatioAtTick(MinTick) and
// GetSqrtRatioAtTick(MaxTick), the bounds GetTickAtSqrtRatio accepts.
var (
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = mustU256("1461446703485210103287273052203988822378723970342")
)

// ErrTickOutOfRange is returned when a tick conversion input falls
// outside [MinTick, MaxTick] or [MinSqrtRatio, MaxSqrtRatio).
var ErrTickOutOfRange = errors.New("uniswapv3: tick out of range")

func mustU256(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

func hex128(s string) *uint256.Int {
	v, err := uint256.FromHex(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ratioFactors[i] holds 1/sqrt(1.0001^(2^i)) in Q128.128, for i=0..19.
// These are the standard precomputed constants used by every Go/Solidity
// port of Uniswap v3's TickMath; bit i of |tick| selects factor i.
var ratioFactors = [20]*uint256.Int{
	hex128("0xfffcb933bd6fad37aa2d162d1a594001"),
	hex128("0xfff97272373d413259a46990580e213a"),
	hex128("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	hex128("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	hex128("0xffcb9843d60f6159c9db58835c926644"),
	hex128("0xff973b41fa98c081472e6896dfb254c0"),
	hex128("0xff2ea16466c96a3843ec78b326b52861"),
	hex128("0xfe5dee046a99a2a811c461f1969c3053"),
	hex128("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	hex128("0xf987a7253ac413176f2b074cf7815e54"),
	hex128("0xf3392b0822b70005940c7a398e4b70f3"),
	hex128("0xe7159475a2c29b7443b29c7fa6e889d9"),
	hex128("0xd097f3bdfd2022b8845ad8f792aa5825"),
	hex128("0xa9f746462d870fdf8a65dc1f90e061e5"),
	hex128("0x70d869a156d2a1b890bb3df62baf32f7"),
	hex128("0x31be135f97d08fd981231505542fcfa6"),
	hex128("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	hex128("0x5d6af8dedb81196699c329225ee604"),
	hex128("0x2216e584f5fa1ea926041bedfe98"),
	hex128("0x48a170391f7dc42444e8fa2"),
}

var maxUint256 = new(uint256.Int).Not(uint256.NewInt(0))

// GetSqrtRatioAtTick returns 1.0001^(tick/2) * 2^96 as the sqrtPriceX96
// for which GetTickAtSqrtRatio is the inverse; because of the final
// round-up the result can be one above the exact floor (it is for ticks
// 1 and -1). Implemented
// by the standard product-of-constants algorithm: seed a Q128.128
// ratio from the low bit of |tick|, multiply in a precomputed factor
// for every set bit of |tick|, invert for positive ticks, then shift
// down to Q96 with round-up-on-remainder so that the returned value is
// the least sqrtPriceX96 that maps back to tick.
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}
	if absTick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioFactors[0])
	} else {
		ratio.Set(hex128("0x100000000000000000000000000000000"))
	}
	for i := 1; i < 20; i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, ratioFactors[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio = new(uint256.Int).Div(maxUint256, ratio)
	}

	// Downshift from Q128.128 to Q96 (losing 32 bits), rounding the
	// result up if any of the discarded bits were set.
	shifted := new(uint256.Int).Rsh(ratio, 32)
	rem := new(uint256.Int).And(ratio, uint256.NewInt(0xffffffff))
	if !rem.IsZero() {
		shifted.AddUint64(shifted, 1)
	}
	return shifted, nil
}

// log2Coefficient and the tick-bound correction constants below are the
// standard TickMath magic numbers: log2Coefficient converts a Q64.64
// log2 of the ratio into a Q22.128 log-base-sqrt(1.0001) estimate, and
// the two offsets bound the true tick to within one of the estimate.
var (
	log2Coefficient *big.Int
	tickLowOffset   *big.Int
	tickHighOffset  *big.Int
)

func init() {
	log2Coefficient, _ = new(big.Int).SetString("255738958999603826347141", 10)
	tickLowOffset, _ = new(big.Int).SetString("-3402992956809132418596140100660247210", 10)
	tickHighOffset, _ = new(big.Int).SetString("291339464771989622907027621153398088495", 10)
}

// GetTickAtSqrtRatio returns the greatest tick t such that
// GetSqrtRatioAtTick(t) <= sqrtPriceX96. Implemented via a base-2
// logarithm approximation of sqrtPriceX96 (most-significant-bit plus a
// 14-round bit-refinement loop) converted to a base-sqrt(1.0001) log,
// then corrected by testing the two candidate ticks the approximation
// can land on.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrTickOutOfRange
	}

	ratio := new(uint256.Int).Lsh(sqrtPriceX96, 32)
	msb := ratio.BitLen() - 1

	var r *uint256.Int
	if msb >= 128 {
		r = new(uint256.Int).Rsh(ratio, uint(msb-127))
	} else {
		r = new(uint256.Int).Lsh(ratio, uint(127-msb))
	}

	// log2 is a signed Q64.64 number; msb can range up to 159 so
	// (msb-128)<<64 comfortably fits in a big.Int.
	log2 := new(big.Int).Lsh(big.NewInt(int64(msb)-128), 64)

	for shift := uint(63); shift >= 50; shift-- {
		sq := new(uint256.Int).Mul(r, r)
		sq.Rsh(sq, 127)
		r = sq
		f := new(uint256.Int).Rsh(r, 128) // 0 or 1
		if !f.IsZero() {
			log2.SetBit(log2, int(shift), 1)
			r.Rsh(r, 1)
		}
	}

	logSqrt10001 := new(big.Int).Mul(log2, log2Coefficient)

	tickLowBig := new(big.Int).Add(logSqrt10001, tickLowOffset)
	tickLowBig.Rsh(tickLowBig, 128)
	tickHighBig := new(big.Int).Add(logSqrt10001, tickHighOffset)
	tickHighBig.Rsh(tickHighBig, 128)

	tickLow := int32(tickLowBig.Int64())
	tickHigh := int32(tickHighBig.Int64())

	if tickLow == tickHigh {
		return tickLow, nil
	}
	hi, err := GetSqrtRatioAtTick(tickHigh)
	if err != nil {
		return 0, err
	}
	if hi.Cmp(sqrtPriceX96) <= 0 {
		return tickHigh, nil
	}
	return tickLow, nil
}
