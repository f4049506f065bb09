package heap

import (
	"fmt"

	"kheap/heaputils"
	"kheap/paging"
)

// writeMarginAfterAllocation stamps the corruption-detection marker into the
// heaputils.DebugMargin bytes every strategy reserves immediately past the
// requested bytes of a live allocation. Builds without the debug_kheap tag
// have a zero margin and skip the store entirely.
func writeMarginAfterAllocation(mem Memory, allocEnd paging.VirtAddr) {
	if heaputils.DebugMargin == 0 {
		return
	} else if heaputils.DebugMargin%4 != 0 {
		panic(fmt.Sprintf("invalid debug margin: debug margin %d must be a multiple of 4", heaputils.DebugMargin))
	}

	view := make([]byte, heaputils.DebugMargin)
	heaputils.WriteMagicValue(view, 0)
	if err := mem.Store(allocEnd, view); err != nil {
		panic(fmt.Sprintf("heap: cannot write allocation margin at %#x: %v", uint64(allocEnd), err))
	}
}

// validateMarginAfterAllocation checks the marker written by
// writeMarginAfterAllocation and panics when it has been clobbered, which
// means the allocation's owner wrote past its requested bytes. Builds without
// the debug_kheap tag have a zero margin and skip the load entirely.
func validateMarginAfterAllocation(mem Memory, allocEnd paging.VirtAddr) {
	if heaputils.DebugMargin == 0 {
		return
	} else if heaputils.DebugMargin%4 != 0 {
		panic(fmt.Sprintf("invalid debug margin: debug margin %d must be a multiple of 4", heaputils.DebugMargin))
	}

	view := make([]byte, heaputils.DebugMargin)
	if err := mem.Load(allocEnd, view); err != nil {
		panic(fmt.Sprintf("heap: cannot read allocation margin at %#x: %v", uint64(allocEnd), err))
	}
	if !heaputils.ValidateMagicValue(view, 0) {
		panic(fmt.Sprintf("heap: memory written past the end of the allocation ending at %#x", uint64(allocEnd)))
	}
}
