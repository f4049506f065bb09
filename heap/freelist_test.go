package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kheap/heap"
	"kheap/heaputils"
	"kheap/paging"
)

func TestFreeListInitStats(t *testing.T) {
	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, 4096)

	var stats heaputils.DetailedStatistics
	stats.Clear()
	list.AddDetailedStatistics(&stats)

	require.Equal(t, heaputils.DetailedStatistics{
		Statistics: heaputils.Statistics{
			HeapCount:       1,
			HeapBytes:       4096,
			AllocationCount: 0,
			AllocationBytes: 0,
		},
		UnusedRangeCount:   1,
		UnusedRangeSizeMin: 4096,
		UnusedRangeSizeMax: 4096,
	}, stats)
	require.Equal(t, 1, list.FreeRegionsCount())
	require.Equal(t, 4096, list.SumFreeSize())
	require.NoError(t, list.Validate())
}

func TestFreeListSplitsRegions(t *testing.T) {
	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, 4096)

	blockSize := 64 + heaputils.DebugMargin

	first, err := list.Allocate(heap.Request{Size: 64, Align: 8})
	require.NoError(t, err)
	require.Equal(t, testHeapStart, first)
	require.Equal(t, 1, list.FreeRegionsCount())
	require.Equal(t, 4096-blockSize, list.SumFreeSize())

	second, err := list.Allocate(heap.Request{Size: 64, Align: 8})
	require.NoError(t, err)
	require.Equal(t, testHeapStart+paging.VirtAddr(blockSize), second)
	require.NoError(t, list.Validate())
}

func TestFreeListReusesMostRecentlyFreed(t *testing.T) {
	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, 4096)

	req := heap.Request{Size: 64, Align: 8}
	first, err := list.Allocate(req)
	require.NoError(t, err)

	list.Deallocate(first, req)

	// The freed node sits at the front of the list, so an identical request
	// gets the same bytes back.
	second, err := list.Allocate(req)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.NoError(t, list.Validate())
}

func TestFreeListAlignment(t *testing.T) {
	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, 4096)

	_, err := list.Allocate(heap.Request{Size: 8, Align: 8})
	require.NoError(t, err)

	addr, err := list.Allocate(heap.Request{Size: 32, Align: 64})
	require.NoError(t, err)
	require.True(t, addr.IsAligned(64), "address %#x is not aligned to 64", addr)
	require.NoError(t, list.Validate())
}

func TestFreeListFragmentationWithoutCoalescing(t *testing.T) {
	slot := 128 + heaputils.DebugMargin

	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, 3*slot)

	req := heap.Request{Size: 128, Align: 8}
	a, err := list.Allocate(req)
	require.NoError(t, err)
	b, err := list.Allocate(req)
	require.NoError(t, err)
	c, err := list.Allocate(req)
	require.NoError(t, err)
	require.Equal(t, testHeapStart, a)
	require.Equal(t, testHeapStart+paging.VirtAddr(slot), b)
	require.Equal(t, testHeapStart+paging.VirtAddr(2*slot), c)

	list.Deallocate(a, req)
	list.Deallocate(c, req)
	require.Equal(t, 2, list.FreeRegionsCount())
	require.Equal(t, 2*slot, list.SumFreeSize())

	// 200 bytes fit in the aggregate free space but in neither slot. With no
	// coalescing this fails by design, even though a and c were freed.
	_, err = list.Allocate(heap.Request{Size: 200, Align: 8})
	require.ErrorIs(t, err, heaputils.OutOfMemoryError)

	// A slot-sized request still works, served from the most recently freed
	// slot.
	addr, err := list.Allocate(req)
	require.NoError(t, err)
	require.Equal(t, c, addr)
	require.NoError(t, list.Validate())
}

func TestFreeListRejectsUnrepresentableLeftover(t *testing.T) {
	region := 64 + heaputils.DebugMargin

	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, region)

	// 56 bytes would leave an 8-byte tail, too small to hold a node header,
	// so the only region is rejected even though the bytes exist.
	_, err := list.Allocate(heap.Request{Size: 56, Align: 8})
	require.ErrorIs(t, err, heaputils.OutOfMemoryError)

	// An exact fit consumes the region with no leftover.
	addr, err := list.Allocate(heap.Request{Size: 64, Align: 8})
	require.NoError(t, err)
	require.Equal(t, testHeapStart, addr)
	require.Equal(t, 0, list.FreeRegionsCount())
}

func TestFreeListDisjointAllocations(t *testing.T) {
	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, 4096)

	requests := []heap.Request{
		{Size: 24, Align: 8},
		{Size: 128, Align: 64},
		{Size: 8, Align: 8},
		{Size: 500, Align: 16},
	}

	var addrs []paging.VirtAddr
	var sizes []int
	for _, req := range requests {
		addr, err := list.Allocate(req)
		require.NoError(t, err)
		addrs = append(addrs, addr)
		sizes = append(sizes, req.Size)
	}

	requireDisjoint(t, addrs, sizes)
	require.NoError(t, list.Validate())
}

func TestFreeListImmediateReuseAfterChurn(t *testing.T) {
	list := heap.NewFreeListStrategy()
	list.Init(testRegion(t, 4096), testHeapStart, 4096)

	req := heap.Request{Size: 16, Align: 8}
	for i := 0; i < 100; i++ {
		addr, err := list.Allocate(req)
		require.NoError(t, err)
		list.Deallocate(addr, req)
	}

	require.True(t, list.IsEmpty())
	require.Equal(t, 4096, list.SumFreeSize())
	require.NoError(t, list.Validate())

	var stats heaputils.DetailedStatistics
	stats.Clear()
	list.AddDetailedStatistics(&stats)
	require.Equal(t, list.FreeRegionsCount(), stats.UnusedRangeCount)
}
