//go:build heap_fixedblock && !heap_bump

package heap

// Global is the process-wide allocator singleton. This build selects the
// fixed-size-block strategy via the heap_fixedblock build tag. The singleton
// starts empty and serves no allocations until Init runs.
var Global = NewLocked(FixedBlockStrategy{})
