//go:build heap_bump

package heap

// Global is the process-wide allocator singleton. This build selects the
// bump strategy via the heap_bump build tag. The singleton starts empty and
// serves no allocations until Init runs.
var Global = NewLocked(BumpStrategy{})
