package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kheap/heap"
	"kheap/paging"
)

const testHeapStart = paging.VirtAddr(0x4444_4444_0000)

// testRegion maps enough pages at testHeapStart to cover size bytes and
// returns the backing memory view. Strategy tests initialize their own
// instances over it rather than going through the global singleton.
func testRegion(t *testing.T, size int) heap.Memory {
	t.Helper()

	arena := paging.NewFrameArena(size/paging.PageSize + 2)
	space := paging.NewAddressSpace(arena)

	first := paging.PageContaining(testHeapStart)
	last := paging.PageContaining(testHeapStart + paging.VirtAddr(size) - 1)
	for page := first; page <= last; page++ {
		frame, ok := arena.AllocateFrame()
		require.True(t, ok)
		require.NoError(t, space.Map(page, frame, paging.FlagPresent|paging.FlagWritable))
	}

	return space
}

// requireDisjoint asserts that the allocated ranges are pairwise disjoint.
func requireDisjoint(t *testing.T, addrs []paging.VirtAddr, sizes []int) {
	t.Helper()

	for i := range addrs {
		for j := i + 1; j < len(addrs); j++ {
			iEnd := addrs[i] + paging.VirtAddr(sizes[i])
			jEnd := addrs[j] + paging.VirtAddr(sizes[j])
			overlap := addrs[i] < jEnd && addrs[j] < iEnd
			require.False(t, overlap, "allocations [%#x, %#x) and [%#x, %#x) overlap", addrs[i], iEnd, addrs[j], jEnd)
		}
	}
}
