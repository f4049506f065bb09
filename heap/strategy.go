package heap

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"kheap/heaputils"
	"kheap/paging"
)

// Strategy carves a bootstrapped heap region into allocations. Exactly one
// strategy instance is active per build, selected at compile time (see
// global_freelist.go and friends); the interface exists so the bootstrap and
// the global hook are written once, not so strategies can be swapped at
// runtime.
type Strategy interface {
	// Init hands the strategy its region. The range must already be mapped
	// and writable. Init must be called exactly once, before the first
	// Allocate; neither constraint is checked.
	Init(mem Memory, start paging.VirtAddr, size int)

	// Allocate returns the address of a block satisfying req. The returned
	// address is a multiple of req.Align and the block does not overlap any
	// live allocation. When the free space cannot satisfy the request, the
	// returned error matches heaputils.OutOfMemoryError; the request is
	// never retried internally.
	Allocate(req Request) (paging.VirtAddr, error)
	// Deallocate returns the block at addr to the strategy. req must be the
	// Request the block was allocated with. Double frees and foreign
	// addresses are undefined behavior; production builds do not detect
	// them.
	Deallocate(addr paging.VirtAddr, req Request)

	// Size retrieves the byte length of the region given to Init.
	Size() int
	// SumFreeSize returns the number of free bytes in the region. Free bytes
	// are not necessarily allocatable as a single block.
	SumFreeSize() int
	// AllocationCount returns the number of live allocations; generally the
	// number of successful Allocate calls minus the number of Deallocate
	// calls.
	AllocationCount() int
	// FreeRegionsCount returns the number of distinct free regions the
	// strategy tracks. Adjacent free regions are not merged by any strategy
	// in this package, so this number grows as the heap fragments.
	FreeRegionsCount() int
	// IsEmpty will return true if the strategy has no live allocations
	IsEmpty() bool

	// Validate performs internal consistency checks. These walk the
	// strategy's in-memory structures and may be expensive; when the
	// implementation is functioning correctly this cannot return an error.
	Validate() error
	// AddStatistics sums this heap's occupancy numbers into stats.
	AddStatistics(stats *heaputils.Statistics)
	// AddDetailedStatistics sums this heap's occupancy numbers and
	// free-region detail into stats.
	AddDetailedStatistics(stats *heaputils.DetailedStatistics)
	// HeapJsonData populates a json object with information about this heap
	HeapJsonData(json jwriter.ObjectState)
}
