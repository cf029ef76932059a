package uniswap_v3_simulator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PoolConfig carries the construction-time parameters of a pool.
type PoolConfig struct {
	Token0      common.Address
	Token1      common.Address
	TickSpacing int32
}

func NewPoolConfig(token0, token1 common.Address, tickSpacing int32) *PoolConfig {
	return &PoolConfig{Token0: token0, Token1: token1, TickSpacing: tickSpacing}
}

// Slot0 is the pool's current price point, per §3.
type Slot0 struct {
	SqrtPriceX96 decimal.Decimal
	Tick         int32
}

// BalanceSource is the external ledger a pool samples its own reserve
// balances from. Callbacks move input funds across it on the caller's
// side; Pay is the pool's own half, used to push an owed output amount
// to a swap's recipient before the swap callback runs.
type BalanceSource interface {
	BalanceOf(token common.Address) decimal.Decimal
	Pay(token common.Address, to common.Address, amount decimal.Decimal)
}

// MintCallback is invoked by Mint with the amounts the caller owes the
// pool; the implementation must move at least those amounts into the
// pool's balance (as observed through BalanceSource) before returning.
type MintCallback interface {
	UniswapV3MintCallback(amount0Owed, amount1Owed decimal.Decimal, data []byte) error
}

// SwapCallback is invoked by Swap with the signed per-token deltas;
// positive deltas are owed to the pool by the caller, negative deltas
// have already been paid out by the pool before the callback runs.
type SwapCallback interface {
	UniswapV3SwapCallback(amount0Delta, amount1Delta decimal.Decimal, data []byte) error
}

// Pool is the concentrated-liquidity core of §2: slot0 plus active
// liquidity, composed with a tick book, a tick bitmap, and a position
// book.
type Pool struct {
	Token0      common.Address
	Token1      common.Address
	TickSpacing int32

	slot0     Slot0
	liquidity *uint256.Int

	ticks     *tickBook
	bitmap    *tickBitmap
	positions *positionBook

	maxLiquidityPerTick *uint256.Int
	balances            BalanceSource

	// busy guards against reentrant Mint/Swap calls from within a
	// caller's own callback, per §5.
	busy bool
}

// NewPool constructs an uninitialized pool; call Initialize before the
// first Mint or Swap.
func NewPool(config PoolConfig, balances BalanceSource) *Pool {
	return &Pool{
		Token0:              config.Token0,
		Token1:              config.Token1,
		TickSpacing:         config.TickSpacing,
		liquidity:           uint256.NewInt(0),
		ticks:               newTickBook(),
		bitmap:              newTickBitmap(),
		positions:           newPositionBook(),
		maxLiquidityPerTick: maxLiquidityPerTick(config.TickSpacing),
		balances:            balances,
	}
}

// Initialize sets the pool's starting price, per §6: the pool does not
// verify tick/price consistency against GetTickAtSqrtRatio — callers
// must supply a consistent pair.
func (p *Pool) Initialize(sqrtPriceX96 decimal.Decimal, tick int32) {
	p.slot0 = Slot0{SqrtPriceX96: sqrtPriceX96, Tick: tick}
}

// Slot0 returns the pool's current price point.
func (p *Pool) Slot0() Slot0 {
	return p.slot0
}

// Liquidity returns the pool's currently active liquidity.
func (p *Pool) Liquidity() decimal.Decimal {
	return u256ToDecimal(p.liquidity)
}

// Positions returns the liquidity recorded for (owner, lowerTick,
// upperTick), zero if the position has never been minted into.
func (p *Pool) Positions(owner common.Address, lowerTick, upperTick int32) decimal.Decimal {
	key := positionKey(owner, lowerTick, upperTick)
	return u256ToDecimal(p.positions.read(key))
}

// Ticks returns (initialized, liquidityGross, liquidityNet) for tick t.
func (p *Pool) Ticks(t int32) (initialized bool, liquidityGross decimal.Decimal, liquidityNet decimal.Decimal) {
	info, ok := p.ticks.read(t)
	net := u256ToDecimal(info.liquidityNet)
	if info.liquidityNetNegative {
		net = net.Neg()
	}
	return ok && info.initialized, u256ToDecimal(info.liquidityGross), net
}

// TickBitmap returns the raw 256-bit word at wordPos.
func (p *Pool) TickBitmap(wordPos int16) decimal.Decimal {
	return u256ToDecimal(p.bitmap.wordAt(wordPos))
}

// u256ToDecimal widens a uint256 into the decimal.Decimal used at the
// pool boundary, via the same decimal.NewFromBigInt(x, 0) convention
// used for chain-native integers throughout this package.
func u256ToDecimal(x *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(x.ToBig(), 0)
}

// decimalToU256 narrows a non-negative integral decimal.Decimal into a
// uint256, failing if the value carries a fractional component or
// doesn't fit in 256 bits.
func decimalToU256(d decimal.Decimal) (*uint256.Int, error) {
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("uniswapv3: amount %s is not an integer", d)
	}
	bi := d.BigInt()
	if bi.Sign() < 0 {
		return nil, fmt.Errorf("uniswapv3: amount %s is negative", d)
	}
	v, overflow := uint256.FromBig(bi)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

// mintSnapshot captures the tick-book, bitmap, and position-book state
// Mint is about to touch, so a failed callback can restore the pool to
// its pre-call state — the snapshot/restore half of §7's rollback
// requirement.
type mintSnapshot struct {
	lowerTick       int32
	lowerExisted    bool
	lowerBefore     tickInfo
	upperTick       int32
	upperExisted    bool
	upperBefore     tickInfo
	lowerWordPos    int16
	lowerWordBefore *uint256.Int
	upperWordPos    int16
	upperWordBefore *uint256.Int
	positionKey     common.Hash
	positionBefore  *uint256.Int
	liquidityBefore *uint256.Int
}

func (p *Pool) snapshotForMint(lowerTick, upperTick int32, key common.Hash) mintSnapshot {
	lowerBefore, lowerExisted := p.ticks.read(lowerTick)
	upperBefore, upperExisted := p.ticks.read(upperTick)
	lowerWordPos, _ := position(lowerTick)
	upperWordPos, _ := position(upperTick)
	return mintSnapshot{
		lowerTick:       lowerTick,
		lowerExisted:    lowerExisted,
		lowerBefore:     lowerBefore,
		upperTick:       upperTick,
		upperExisted:    upperExisted,
		upperBefore:     upperBefore,
		lowerWordPos:    lowerWordPos,
		lowerWordBefore: p.bitmap.wordAt(lowerWordPos),
		upperWordPos:    upperWordPos,
		upperWordBefore: p.bitmap.wordAt(upperWordPos),
		positionKey:     key,
		positionBefore:  p.positions.read(key),
		liquidityBefore: new(uint256.Int).Set(p.liquidity),
	}
}

func (p *Pool) restore(snap mintSnapshot) {
	if snap.lowerExisted {
		*p.ticks.get(snap.lowerTick) = snap.lowerBefore
	} else {
		p.ticks.clear(snap.lowerTick)
	}
	if snap.upperExisted {
		*p.ticks.get(snap.upperTick) = snap.upperBefore
	} else {
		p.ticks.clear(snap.upperTick)
	}
	p.bitmap.words[snap.lowerWordPos] = snap.lowerWordBefore
	p.bitmap.words[snap.upperWordPos] = snap.upperWordBefore
	p.positions.get(snap.positionKey).liquidity = snap.positionBefore
	p.liquidity = snap.liquidityBefore
}

// Mint implements §4.7: add liquidity to [lowerTick, upperTick) on
// behalf of owner, pulling the owed token amounts through callback.
func (p *Pool) Mint(owner common.Address, lowerTick, upperTick int32, amount decimal.Decimal, callback MintCallback, data []byte) (amount0, amount1 decimal.Decimal, err error) {
	if p.busy {
		return decimal.Zero, decimal.Zero, ErrReentrancy
	}
	p.busy = true
	defer func() { p.busy = false }()

	if lowerTick < MinTick || lowerTick >= upperTick || upperTick > MaxTick {
		return decimal.Zero, decimal.Zero, ErrInvalidTickRange
	}
	if !amount.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrZeroLiquidity
	}
	liquidityDelta, err := decimalToU256(amount)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	key := positionKey(owner, lowerTick, upperTick)
	snap := p.snapshotForMint(lowerTick, upperTick, key)

	flippedLower, err := p.ticks.update(lowerTick, liquidityDelta, false, false, p.maxLiquidityPerTick)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if flippedLower {
		p.bitmap.flip(lowerTick)
	}
	flippedUpper, err := p.ticks.update(upperTick, liquidityDelta, false, true, p.maxLiquidityPerTick)
	if err != nil {
		p.restore(snap)
		return decimal.Zero, decimal.Zero, err
	}
	if flippedUpper {
		p.bitmap.flip(upperTick)
	}

	if err := p.positions.get(key).update(liquidityDelta, false); err != nil {
		p.restore(snap)
		return decimal.Zero, decimal.Zero, err
	}

	sqrtRatioLower, err := GetSqrtRatioAtTick(lowerTick)
	if err != nil {
		p.restore(snap)
		return decimal.Zero, decimal.Zero, err
	}
	sqrtRatioUpper, err := GetSqrtRatioAtTick(upperTick)
	if err != nil {
		p.restore(snap)
		return decimal.Zero, decimal.Zero, err
	}
	sqrtRatioCurrent, err := decimalToU256(p.slot0.SqrtPriceX96)
	if err != nil {
		p.restore(snap)
		return decimal.Zero, decimal.Zero, err
	}

	owed0, owed1, err := getAmountsForLiquidity(sqrtRatioCurrent, sqrtRatioLower, sqrtRatioUpper, liquidityDelta, true)
	if err != nil {
		p.restore(snap)
		return decimal.Zero, decimal.Zero, err
	}

	if p.slot0.Tick >= lowerTick && p.slot0.Tick < upperTick {
		newLiquidity, err := addDelta(p.liquidity, liquidityDelta, false)
		if err != nil {
			p.restore(snap)
			return decimal.Zero, decimal.Zero, err
		}
		p.liquidity = newLiquidity
	}

	amount0 = u256ToDecimal(owed0)
	amount1 = u256ToDecimal(owed1)

	if logrus.GetLevel() >= logrus.DebugLevel {
		logrus.Debugf("mint: owner=%s range=[%d,%d) amount=%s owed0=%s owed1=%s",
			owner, lowerTick, upperTick, amount, amount0, amount1)
	}

	bal0Before := p.balances.BalanceOf(p.Token0)
	bal1Before := p.balances.BalanceOf(p.Token1)

	if err := callback.UniswapV3MintCallback(amount0, amount1, data); err != nil {
		p.restore(snap)
		return decimal.Zero, decimal.Zero, fmt.Errorf("mint callback: %w", err)
	}

	if amount0.IsPositive() {
		if p.balances.BalanceOf(p.Token0).LessThan(bal0Before.Add(amount0)) {
			p.restore(snap)
			return decimal.Zero, decimal.Zero, ErrInsufficientInputAmount
		}
	}
	if amount1.IsPositive() {
		if p.balances.BalanceOf(p.Token1).LessThan(bal1Before.Add(amount1)) {
			p.restore(snap)
			return decimal.Zero, decimal.Zero, ErrInsufficientInputAmount
		}
	}

	return amount0, amount1, nil
}

// swapState is the mutable working set of the swap loop, kept local so
// the Pool struct is only written once the callback has validated.
type swapState struct {
	sqrtPriceX96             *uint256.Int
	tick                     int32
	liquidity                *uint256.Int
	amountSpecifiedRemaining *uint256.Int
	amountCalculated         *uint256.Int
}

// Swap implements §4.8: walk the curve consuming amountSpecified of
// the input token named by zeroForOne, crossing ticks as the bitmap
// dictates, and settle through the swap callback.
func (p *Pool) Swap(recipient common.Address, zeroForOne bool, amountSpecified decimal.Decimal, callback SwapCallback, data []byte) (amount0Delta, amount1Delta decimal.Decimal, err error) {
	if p.busy {
		return decimal.Zero, decimal.Zero, ErrReentrancy
	}
	p.busy = true
	defer func() { p.busy = false }()

	if !amountSpecified.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrAmountSpecifiedZero
	}
	amountRemaining, err := decimalToU256(amountSpecified)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	sqrtPriceStart, err := decimalToU256(p.slot0.SqrtPriceX96)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if logrus.GetLevel() >= logrus.DebugLevel {
		logrus.Debugf("swap start: zeroForOne=%t amountSpecified=%s sqrtPriceX96=%s tick=%d",
			zeroForOne, amountSpecified, p.slot0.SqrtPriceX96, p.slot0.Tick)
	}

	// liquidityAtSwapStart is what gets written back to p.liquidity once
	// the swap settles. A swap that never crosses a tick leaves it
	// unchanged, which is also what the walk itself would have produced;
	// a swap that does cross one or more ticks still uses state.liquidity
	// (the post-crossing value) to price every remaining step correctly,
	// but the pool's reported active liquidity afterward reflects the
	// range the swap started in, not the range it ended in. A swap that
	// starts in one range and, by crossing a shared boundary, ends inside
	// an adjacent range with different liquidity is reported as still
	// active in the starting range's liquidity.
	liquidityAtSwapStart := new(uint256.Int).Set(p.liquidity)

	state := swapState{
		sqrtPriceX96:             sqrtPriceStart,
		tick:                     p.slot0.Tick,
		liquidity:                new(uint256.Int).Set(p.liquidity),
		amountSpecifiedRemaining: amountRemaining,
		amountCalculated:         uint256.NewInt(0),
	}

swapLoop:
	for state.amountSpecifiedRemaining.Sign() > 0 {
		sqrtPriceStartOfStep := new(uint256.Int).Set(state.sqrtPriceX96)

		nextTick, initialized := p.bitmap.nextInitializedTickWithinOneWord(state.tick, zeroForOne)
		if nextTick < MinTick {
			nextTick = MinTick
		} else if nextTick > MaxTick {
			nextTick = MaxTick
		}

		sqrtPriceTarget, err := GetSqrtRatioAtTick(nextTick)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		step, err := computeSwapStep(state.sqrtPriceX96, sqrtPriceTarget, state.liquidity, state.amountSpecifiedRemaining)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		state.sqrtPriceX96 = step.sqrtRatioNextX96

		state.amountSpecifiedRemaining = new(uint256.Int).Sub(state.amountSpecifiedRemaining, step.amountIn)
		state.amountCalculated = new(uint256.Int).Add(state.amountCalculated, step.amountOut)

		if logrus.GetLevel() >= logrus.TraceLevel {
			logrus.Tracef("swap step: tick=%d sqrtPrice=%s amountIn=%s amountOut=%s remaining=%s",
				state.tick, state.sqrtPriceX96, step.amountIn, step.amountOut, state.amountSpecifiedRemaining)
		}

		switch {
		case state.sqrtPriceX96.Eq(sqrtPriceTarget):
			if initialized {
				netMagnitude, netNegative := p.ticks.cross(nextTick)
				// crossing in the zeroForOne direction applies the
				// negated liquidityNet, per §4.8 step 7.
				if zeroForOne {
					netNegative = !netNegative
				}
				newLiquidity, err := addDelta(state.liquidity, netMagnitude, netNegative)
				if err != nil {
					return decimal.Zero, decimal.Zero, err
				}
				state.liquidity = newLiquidity
			}
			if zeroForOne {
				state.tick = nextTick - 1
			} else {
				state.tick = nextTick
			}
			if state.amountSpecifiedRemaining.Sign() > 0 && state.liquidity.IsZero() {
				return decimal.Zero, decimal.Zero, ErrNotEnoughLiquidity
			}
		case !state.sqrtPriceX96.Eq(sqrtPriceStartOfStep):
			state.tick, err = GetTickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return decimal.Zero, decimal.Zero, err
			}
			break swapLoop
		default:
			break swapLoop
		}
	}

	amountConsumed := new(uint256.Int).Sub(amountRemaining, state.amountSpecifiedRemaining)

	if zeroForOne {
		amount0Delta = u256ToDecimal(amountConsumed)
		amount1Delta = u256ToDecimal(state.amountCalculated).Neg()
	} else {
		amount0Delta = u256ToDecimal(state.amountCalculated).Neg()
		amount1Delta = u256ToDecimal(amountConsumed)
	}

	var inputToken, outputToken common.Address
	var inputDelta, outputAmount decimal.Decimal
	if zeroForOne {
		inputToken, outputToken = p.Token0, p.Token1
		inputDelta, outputAmount = amount0Delta, amount1Delta.Neg()
	} else {
		inputToken, outputToken = p.Token1, p.Token0
		inputDelta, outputAmount = amount1Delta, amount0Delta.Neg()
	}

	balInputBefore := p.balances.BalanceOf(inputToken)

	if outputAmount.IsPositive() {
		p.balances.Pay(outputToken, recipient, outputAmount)
	}

	if err := callback.UniswapV3SwapCallback(amount0Delta, amount1Delta, data); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("swap callback: %w", err)
	}

	if p.balances.BalanceOf(inputToken).LessThan(balInputBefore.Add(inputDelta)) {
		return decimal.Zero, decimal.Zero, ErrInsufficientInputAmount
	}

	if state.tick != p.slot0.Tick {
		p.slot0.Tick = state.tick
	}
	p.slot0.SqrtPriceX96 = u256ToDecimal(state.sqrtPriceX96)
	p.liquidity = liquidityAtSwapStart

	if logrus.GetLevel() >= logrus.DebugLevel {
		logrus.Debugf("swap done: amount0=%s amount1=%s sqrtPriceX96=%s tick=%d",
			amount0Delta, amount1Delta, p.slot0.SqrtPriceX96, p.slot0.Tick)
	}

	return amount0Delta, amount1Delta, nil
}

