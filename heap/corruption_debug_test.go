//go:build debug_kheap

package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kheap/heap"
	"kheap/heaputils"
	"kheap/paging"
)

func TestFreeListStampsMarginPastRequestedBytes(t *testing.T) {
	mem := testRegion(t, 4096)
	list := heap.NewFreeListStrategy()
	list.Init(mem, testHeapStart, 4096)

	req := heap.Request{Size: 64, Align: 8}
	addr, err := list.Allocate(req)
	require.NoError(t, err)

	// The marker sits immediately past the requested bytes.
	view := make([]byte, heaputils.DebugMargin)
	require.NoError(t, mem.Load(addr+paging.VirtAddr(req.Size), view))
	require.True(t, heaputils.ValidateMagicValue(view, 0))

	// An intact margin frees cleanly.
	require.NotPanics(t, func() { list.Deallocate(addr, req) })
}

func TestFreeListDetectsOverrunOnFree(t *testing.T) {
	mem := testRegion(t, 4096)
	list := heap.NewFreeListStrategy()
	list.Init(mem, testHeapStart, 4096)

	req := heap.Request{Size: 64, Align: 8}
	addr, err := list.Allocate(req)
	require.NoError(t, err)

	// A single byte written past the requested size lands in the margin and
	// is caught when the block is freed.
	require.NoError(t, mem.Store(addr+paging.VirtAddr(req.Size), []byte{0xCC}))
	require.Panics(t, func() { list.Deallocate(addr, req) })
}

func TestBumpDetectsOverrunOnFree(t *testing.T) {
	mem := testRegion(t, 4096)
	bump := heap.NewBumpStrategy()
	bump.Init(mem, testHeapStart, 4096)

	req := heap.Request{Size: 32, Align: 8}
	addr, err := bump.Allocate(req)
	require.NoError(t, err)

	// The cursor reserved the margin along with the requested bytes.
	require.Equal(t, 4096-32-heaputils.DebugMargin, bump.SumFreeSize())

	require.NoError(t, mem.Store(addr+paging.VirtAddr(req.Size), []byte{0xCC}))
	require.Panics(t, func() { bump.Deallocate(addr, req) })
}

func TestFixedBlockDetectsOverrunOnFree(t *testing.T) {
	mem := testRegion(t, 8192)
	fixed := heap.NewFixedBlockStrategy()
	fixed.Init(mem, testHeapStart, 8192)

	req := heap.Request{Size: 10, Align: 8}
	addr, err := fixed.Allocate(req)
	require.NoError(t, err)

	require.NoError(t, mem.Store(addr+paging.VirtAddr(req.Size), []byte{0xCC}))
	require.Panics(t, func() { fixed.Deallocate(addr, req) })
}
