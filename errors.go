package uniswap_v3_simulator

import "errors"

// Error taxonomy for the pool core, per §7. All are fatal to the
// current operation; Pool.Mint and Pool.Swap never leave partial state
// on a failed call (Swap commits its state only after the callback's
// balance check passes; Mint restores a pre-call snapshot on failure).
var (
	ErrZeroLiquidity           = errors.New("uniswapv3: mint amount must be greater than zero")
	ErrInvalidTickRange        = errors.New("uniswapv3: invalid tick range")
	ErrNotEnoughLiquidity      = errors.New("uniswapv3: swap consumed all liquidity before completing")
	ErrInsufficientInputAmount = errors.New("uniswapv3: callback did not deliver the owed input amount")
	ErrReentrancy              = errors.New("uniswapv3: reentrant call into pool")
	ErrAmountSpecifiedZero     = errors.New("uniswapv3: swap amount must be nonzero")
)
