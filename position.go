package uniswap_v3_simulator

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// positionKey derives the stable 32-byte digest of (owner, lowerTick,
// upperTick) that identifies a position, per §6: a collision-resistant
// hash over the packed encoding.
func positionKey(owner common.Address, lowerTick, upperTick int32) common.Hash {
	packed := make([]byte, 0, common.AddressLength+6)
	packed = append(packed, owner.Bytes()...)
	packed = append(packed, tick24Bytes(lowerTick)...)
	packed = append(packed, tick24Bytes(upperTick)...)
	return crypto.Keccak256Hash(packed)
}

// tick24Bytes packs a signed 24-bit tick into 3 big-endian bytes
// (two's complement), matching how a Solidity int24 is ABI-packed.
func tick24Bytes(tick int32) []byte {
	u := uint32(tick) & 0xffffff
	return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
}

// position is the per-(owner, lowerTick, upperTick) liquidity entry of
// §3's Position entity.
type position struct {
	liquidity *uint256.Int
}

// positionBook owns every position the pool has ever created, keyed by
// the digest from positionKey.
type positionBook struct {
	entries map[common.Hash]*position
}

func newPositionBook() *positionBook {
	return &positionBook{entries: make(map[common.Hash]*position)}
}

// get returns the position for key, creating an empty one if absent,
// per §4.6.
func (b *positionBook) get(key common.Hash) *position {
	p, ok := b.entries[key]
	if !ok {
		p = &position{liquidity: uint256.NewInt(0)}
		b.entries[key] = p
	}
	return p
}

// read returns a copy of the position for key without creating it.
func (b *positionBook) read(key common.Hash) *uint256.Int {
	p, ok := b.entries[key]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(p.liquidity)
}

// update applies a signed liquidity delta, per §4.6: fails with
// ErrLiquidityUnderflow on a negative result.
func (p *position) update(delta *uint256.Int, deltaNegative bool) error {
	next, err := addDelta(p.liquidity, delta, deltaNegative)
	if err != nil {
		return err
	}
	p.liquidity = next
	return nil
}
