package uniswap_v3_simulator

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrLiquidityOverflow is returned when a tick's gross liquidity would
// exceed the per-tick cap derived from the number of addressable ticks.
var ErrLiquidityOverflow = errors.New("uniswapv3: tick liquidity overflow")

// tickInfo is the per-tick bookkeeping entry of §3's Tick entry: whether
// the tick is a position endpoint, its total referencing liquidity, and
// the signed liquidity added/removed from the active range when the
// swap loop crosses it.
type tickInfo struct {
	initialized    bool
	liquidityGross *uint256.Int
	// liquidityNet is stored as magnitude + sign rather than as a
	// native signed integer so it composes with the uint256 math used
	// everywhere else in the pool core.
	liquidityNet         *uint256.Int
	liquidityNetNegative bool
}

func newTickInfo() *tickInfo {
	return &tickInfo{
		liquidityGross: uint256.NewInt(0),
		liquidityNet:   uint256.NewInt(0),
	}
}

// maxLiquidityPerTick returns floor((2^128-1) / numTicks), the cap
// §4.5 places on a tick's liquidityGross, for a book that addresses
// ticks at the given spacing.
func maxLiquidityPerTick(tickSpacing int32) *uint256.Int {
	minUsable := MinTick / tickSpacing * tickSpacing
	maxUsable := MaxTick / tickSpacing * tickSpacing
	numTicks := uint64((maxUsable-minUsable)/tickSpacing) + 1
	maxUint128 := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
	return new(uint256.Int).Div(maxUint128, uint256.NewInt(numTicks))
}

// tickBook owns every tickInfo the pool has ever initialized, keyed by
// signed tick index.
type tickBook struct {
	entries map[int32]*tickInfo
}

func newTickBook() *tickBook {
	return &tickBook{entries: make(map[int32]*tickInfo)}
}

func (b *tickBook) get(tick int32) *tickInfo {
	e, ok := b.entries[tick]
	if !ok {
		e = newTickInfo()
		b.entries[tick] = e
	}
	return e
}

// read returns the entry for tick without creating it, used by the
// read-only accessors of §6.
func (b *tickBook) read(tick int32) (tickInfo, bool) {
	e, ok := b.entries[tick]
	if !ok {
		return tickInfo{liquidityGross: uint256.NewInt(0), liquidityNet: uint256.NewInt(0)}, false
	}
	return *e, true
}

// update applies a liquidity delta to tick, per §4.5: gross moves by
// the signed delta (failing with ErrLiquidityUnderflow below zero), net
// moves by the signed delta (negated when tick is the upper bound of
// the range). Returns whether initialized flipped.
func (b *tickBook) update(tick int32, liquidityDelta *uint256.Int, deltaNegative bool, upper bool, cap *uint256.Int) (flipped bool, err error) {
	e := b.get(tick)

	grossBefore := new(uint256.Int).Set(e.liquidityGross)
	grossAfter, err := addDelta(e.liquidityGross, liquidityDelta, deltaNegative)
	if err != nil {
		return false, err
	}
	if grossAfter.Cmp(cap) > 0 {
		return false, ErrLiquidityOverflow
	}

	netNegative := deltaNegative
	if upper {
		netNegative = !deltaNegative
	}
	newNet, newNegative := signedAdd(e.liquidityNet, e.liquidityNetNegative, liquidityDelta, netNegative)

	e.liquidityGross = grossAfter
	e.liquidityNet = newNet
	e.liquidityNetNegative = newNegative

	wasInitialized := grossBefore.Sign() > 0
	nowInitialized := grossAfter.Sign() > 0
	e.initialized = nowInitialized
	return wasInitialized != nowInitialized, nil
}

// clear removes a tick's entry once its liquidityGross has returned to
// zero, per the lifecycle note in §3.
func (b *tickBook) clear(tick int32) {
	delete(b.entries, tick)
}

// cross returns the stored liquidityNet for use by the swap engine, per
// §4.5.
func (b *tickBook) cross(tick int32) (magnitude *uint256.Int, negative bool) {
	e := b.get(tick)
	return new(uint256.Int).Set(e.liquidityNet), e.liquidityNetNegative
}

// signedAdd adds two magnitude+sign values, used for combining
// liquidityNet deltas without a native signed 128-bit type.
func signedAdd(a *uint256.Int, aNeg bool, b *uint256.Int, bNeg bool) (*uint256.Int, bool) {
	if aNeg == bNeg {
		return new(uint256.Int).Add(a, b), aNeg
	}
	if a.Cmp(b) >= 0 {
		return new(uint256.Int).Sub(a, b), aNeg
	}
	return new(uint256.Int).Sub(b, a), bNeg
}
