package uniswap_v3_simulator

import "github.com/holiman/uint256"

// tickBitmap is the sparse bitmap of initialized ticks from §4.5,
// partitioned into 256-bit words addressed by wordPos = tick >> 8
// (tick spacing 1, as the core's spec fixes). A word is only allocated
// once a bit within it is flipped, keeping the map sparse.
type tickBitmap struct {
	words map[int16]*uint256.Int
}

func newTickBitmap() *tickBitmap {
	return &tickBitmap{words: make(map[int16]*uint256.Int)}
}

func position(tick int32) (wordPos int16, bitPos uint8) {
	return int16(tick >> 8), uint8(uint32(tick) & 0xff)
}

// flip toggles the bit for tick, creating its word on first use.
func (bm *tickBitmap) flip(tick int32) {
	wordPos, bitPos := position(tick)
	word, ok := bm.words[wordPos]
	if !ok {
		word = uint256.NewInt(0)
		bm.words[wordPos] = word
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
	word.Xor(word, mask)
}

// wordAt returns the raw word for a given wordPos, for the read
// accessor of §6 (zero if the word was never allocated).
func (bm *tickBitmap) wordAt(wordPos int16) *uint256.Int {
	w, ok := bm.words[wordPos]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(w)
}

// mostSignificantBit returns the index of the highest set bit of a
// nonzero value.
func mostSignificantBit(x *uint256.Int) int {
	return x.BitLen() - 1
}

// leastSignificantBit returns the index of the lowest set bit of a
// nonzero value, via the x & (-x) bit-isolation trick.
func leastSignificantBit(x *uint256.Int) int {
	neg := new(uint256.Int).Sub(uint256.NewInt(0), x)
	isolated := new(uint256.Int).And(x, neg)
	return isolated.BitLen() - 1
}

// nextInitializedTickWithinOneWord implements §4.5: scan the word
// containing tick (when lte) or tick+1 (otherwise) for the nearest set
// bit at-or-below (lte) or at-or-above (!lte) the starting bit,
// constraining the search — and so the cost of one swap step — to a
// single 256-bit word. When the word has no qualifying bit, the
// word's boundary tick is returned with initialized=false.
func (bm *tickBitmap) nextInitializedTickWithinOneWord(tick int32, lte bool) (next int32, initialized bool) {
	if lte {
		wordPos, bitPos := position(tick)
		word := bm.wordAt(wordPos)
		// mask selects every bit at-or-below bitPos.
		mask := new(uint256.Int).Sub(
			new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)+1),
			uint256.NewInt(1),
		)
		masked := new(uint256.Int).And(word, mask)
		if masked.IsZero() {
			return int32(wordPos) * 256, false
		}
		msb := mostSignificantBit(masked)
		return int32(wordPos)*256 + int32(msb), true
	}

	startTick := tick + 1
	wordPos, bitPos := position(startTick)
	word := bm.wordAt(wordPos)
	// mask selects every bit at-or-above bitPos.
	mask := new(uint256.Int).Not(
		new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)), uint256.NewInt(1)),
	)
	masked := new(uint256.Int).And(word, mask)
	if masked.IsZero() {
		return int32(wordPos)*256 + 255, false
	}
	lsb := leastSignificantBit(masked)
	return int32(wordPos)*256 + int32(lsb), true
}
