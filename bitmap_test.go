package uniswap_v3_simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlipAndFindWithinSameWord(t *testing.T) {
	bm := newTickBitmap()
	// 1000 and 1005 both fall in word 3 (ticks [768, 1023]).
	bm.flip(1000)
	bm.flip(1005)

	next, initialized := bm.nextInitializedTickWithinOneWord(1005, true)
	require.True(t, initialized)
	require.Equal(t, int32(1005), next)

	next, initialized = bm.nextInitializedTickWithinOneWord(1000, true)
	require.True(t, initialized)
	require.Equal(t, int32(1000), next)

	next, initialized = bm.nextInitializedTickWithinOneWord(999, false)
	require.True(t, initialized)
	require.Equal(t, int32(1000), next)
}

func TestFlipTwiceClearsBit(t *testing.T) {
	bm := newTickBitmap()
	bm.flip(100)
	bm.flip(100)

	_, initialized := bm.nextInitializedTickWithinOneWord(100, true)
	require.False(t, initialized)
}

func TestNextInitializedTickWithinOneWordBoundary(t *testing.T) {
	bm := newTickBitmap()
	// word 0 covers ticks [0, 255]; nothing initialized in it.
	next, initialized := bm.nextInitializedTickWithinOneWord(10, true)
	require.False(t, initialized)
	require.Equal(t, int32(0), next)

	next, initialized = bm.nextInitializedTickWithinOneWord(10, false)
	require.False(t, initialized)
	require.Equal(t, int32(255), next)
}

func TestPositionWordAndBit(t *testing.T) {
	wordPos, bitPos := position(256)
	require.Equal(t, int16(1), wordPos)
	require.Equal(t, uint8(0), bitPos)

	wordPos, bitPos = position(-1)
	require.Equal(t, int16(-1), wordPos)
	require.Equal(t, uint8(255), bitPos)
}
