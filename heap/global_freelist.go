//go:build !heap_bump && !heap_fixedblock

package heap

// Global is the process-wide allocator singleton. The active strategy is a
// build-time choice: this default build uses the free-list strategy, and the
// heap_bump and heap_fixedblock build tags swap it. The singleton starts
// empty and serves no allocations until Init runs.
var Global = NewLocked(FreeListStrategy{})
