package paging_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kheap/paging"
)

func TestAddressSpaceStoreLoadAcrossPages(t *testing.T) {
	arena := paging.NewFrameArena(4)
	space := paging.NewAddressSpace(arena)

	base := paging.VirtAddr(0x1000)
	for page := paging.PageContaining(base); page <= paging.PageContaining(base+2*paging.PageSize-1); page++ {
		frame, ok := arena.AllocateFrame()
		require.True(t, ok)
		require.NoError(t, space.Map(page, frame, paging.FlagPresent|paging.FlagWritable))
	}

	// The write straddles the boundary between the two mapped pages.
	addr := base + paging.PageSize - 4
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, space.Store(addr, payload))

	back := make([]byte, len(payload))
	require.NoError(t, space.Load(addr, back))
	require.Equal(t, payload, back)
}

func TestAddressSpaceUnmappedAccessFaults(t *testing.T) {
	arena := paging.NewFrameArena(1)
	space := paging.NewAddressSpace(arena)

	buf := make([]byte, 8)
	require.ErrorIs(t, space.Load(paging.VirtAddr(0x5000), buf), paging.PageNotMapped)
	require.ErrorIs(t, space.Store(paging.VirtAddr(0x5000), buf), paging.PageNotMapped)
}

func TestAddressSpaceDoubleMap(t *testing.T) {
	arena := paging.NewFrameArena(2)
	space := paging.NewAddressSpace(arena)

	frame, ok := arena.AllocateFrame()
	require.True(t, ok)
	require.NoError(t, space.Map(paging.Page(4), frame, paging.FlagPresent|paging.FlagWritable))

	frame2, ok := arena.AllocateFrame()
	require.True(t, ok)
	require.ErrorIs(t, space.Map(paging.Page(4), frame2, paging.FlagPresent|paging.FlagWritable), paging.PageAlreadyMapped)
}

func TestAddressSpaceReadOnlyMapping(t *testing.T) {
	arena := paging.NewFrameArena(1)
	space := paging.NewAddressSpace(arena)

	frame, ok := arena.AllocateFrame()
	require.True(t, ok)
	require.NoError(t, space.Map(paging.Page(1), frame, paging.FlagPresent))

	buf := make([]byte, 4)
	require.NoError(t, space.Load(paging.VirtAddr(0x1000), buf))
	require.ErrorIs(t, space.Store(paging.VirtAddr(0x1000), buf), paging.PageNotWritable)
}

func TestAddressSpaceTranslate(t *testing.T) {
	arena := paging.NewFrameArena(2)
	space := paging.NewAddressSpace(arena)

	frame, ok := arena.AllocateFrame()
	require.True(t, ok)
	require.NoError(t, space.Map(paging.Page(3), frame, paging.FlagPresent))

	virt := paging.Page(3).StartAddress() + 123
	phys, ok := space.Translate(virt)
	require.True(t, ok)
	require.Equal(t, frame.StartAddress()+123, phys)
	require.Equal(t, frame, paging.FrameContaining(phys))

	_, ok = space.Translate(paging.VirtAddr(0x9000))
	require.False(t, ok)
}

func TestFrameArenaExhaustion(t *testing.T) {
	arena := paging.NewFrameArena(2)
	require.Equal(t, 2, arena.FramesRemaining())

	first, ok := arena.AllocateFrame()
	require.True(t, ok)
	second, ok := arena.AllocateFrame()
	require.True(t, ok)
	require.NotEqual(t, first, second)

	_, ok = arena.AllocateFrame()
	require.False(t, ok)
	require.Equal(t, 0, arena.FramesRemaining())
}

func TestPageRange(t *testing.T) {
	start := paging.VirtAddr(0x4444_4444_0000)
	r := paging.RangeInclusive(
		paging.PageContaining(start),
		paging.PageContaining(start+100*1024-1),
	)
	require.Equal(t, 25, r.Count())
	require.Equal(t, start, r.First.StartAddress())
}
