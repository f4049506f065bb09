//go:build !debug_kheap

package heap

import "kheap/paging"

// allocationTracker records live allocations in debug_kheap builds so that
// double frees and overlapping allocations panic at the call site instead of
// silently corrupting the heap. This is the production no-op; contract
// violations are undefined behavior here.
type allocationTracker struct{}

func (t *allocationTracker) trackInit() {
}

func (t *allocationTracker) trackAllocate(addr paging.VirtAddr, size int) {
}

func (t *allocationTracker) trackDeallocate(addr paging.VirtAddr) {
}
