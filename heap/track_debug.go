//go:build debug_kheap

package heap

import (
	"fmt"

	"github.com/dolthub/swiss"

	"kheap/paging"
)

// allocationTracker records live allocations in debug_kheap builds so that
// double frees and overlapping allocations panic at the call site instead of
// silently corrupting the heap. Production builds compile this away (see
// track_prod.go); there, contract violations stay undefined behavior.
type allocationTracker struct {
	live *swiss.Map[paging.VirtAddr, int]
}

func (t *allocationTracker) trackInit() {
	t.live = swiss.NewMap[paging.VirtAddr, int](64)
}

func (t *allocationTracker) trackAllocate(addr paging.VirtAddr, size int) {
	end := addr + paging.VirtAddr(size)
	t.live.Iter(func(liveAddr paging.VirtAddr, liveSize int) bool {
		liveEnd := liveAddr + paging.VirtAddr(liveSize)
		if addr < liveEnd && liveAddr < end {
			panic(fmt.Sprintf("heap: allocation [%#x, %#x) overlaps live allocation [%#x, %#x)",
				uint64(addr), uint64(end), uint64(liveAddr), uint64(liveEnd)))
		}
		return false
	})
	t.live.Put(addr, size)
}

func (t *allocationTracker) trackDeallocate(addr paging.VirtAddr) {
	if !t.live.Has(addr) {
		panic(fmt.Sprintf("heap: deallocating %#x, which is not a live allocation (double free or foreign pointer)", uint64(addr)))
	}
	t.live.Delete(addr)
}
