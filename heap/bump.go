package heap

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"

	"kheap/heaputils"
	"kheap/paging"
)

// BumpStrategy allocates by advancing a single cursor through the region and
// never reuses individual blocks. Deallocate only decrements a live counter;
// when the counter reaches zero the whole region is reclaimed in one step by
// resetting the cursor, including blocks that were never individually freed.
//
// Known limitation: while the counter is nonzero, space behind the cursor is
// never reused. An allocation can fail with the cursor at the end of the
// region even though earlier blocks are logically dead, because liveness is
// tracked only in aggregate. That is a characteristic of the strategy, not a
// defect.
type BumpStrategy struct {
	mem       Memory
	heapStart paging.VirtAddr
	heapEnd   paging.VirtAddr

	next        paging.VirtAddr
	allocations int
	track       allocationTracker
}

var _ Strategy = &BumpStrategy{}

// NewBumpStrategy creates an empty bump strategy. It serves no allocations
// until Init.
func NewBumpStrategy() *BumpStrategy {
	return &BumpStrategy{}
}

// Init hands the strategy its region. Must be called exactly once, before
// the first Allocate, with a fully mapped writable range.
func (s *BumpStrategy) Init(mem Memory, start paging.VirtAddr, size int) {
	s.mem = mem
	s.heapStart = start
	s.heapEnd = start + paging.VirtAddr(size)
	s.next = start
	s.allocations = 0
	s.track.trackInit()
}

// Allocate places the block at the cursor, aligned up to req.Align, and
// advances the cursor past it. Debug builds reserve heaputils.DebugMargin
// extra bytes past the requested size and stamp a corruption marker there.
func (s *BumpStrategy) Allocate(req Request) (paging.VirtAddr, error) {
	heaputils.DebugCheckPow2(req.Align, "req.Align")
	size := req.Size + heaputils.DebugMargin

	allocStart := s.next.AlignUp(uint64(req.Align))
	allocEnd := allocStart + paging.VirtAddr(size)
	if allocStart < s.next || allocEnd < allocStart {
		// Aligning or sizing wrapped the address space.
		return 0, cerrors.Wrapf(heaputils.OutOfMemoryError, "allocation of %d bytes at %#x overflows the address space", req.Size, uint64(s.next))
	}
	if allocEnd > s.heapEnd {
		return 0, cerrors.Wrapf(heaputils.OutOfMemoryError, "cursor at %#x cannot place %d bytes aligned to %d", uint64(s.next), req.Size, req.Align)
	}

	s.next = allocEnd
	s.allocations++
	writeMarginAfterAllocation(s.mem, allocStart+paging.VirtAddr(req.Size))
	s.track.trackAllocate(allocStart, size)
	heaputils.DebugValidate(s)
	return allocStart, nil
}

// Deallocate drops one live allocation. When the last live allocation is
// freed the cursor resets to the start of the region, reclaiming everything
// at once; until then no space is reclaimed.
func (s *BumpStrategy) Deallocate(addr paging.VirtAddr, req Request) {
	s.track.trackDeallocate(addr)
	validateMarginAfterAllocation(s.mem, addr+paging.VirtAddr(req.Size))
	s.allocations--
	if s.allocations == 0 {
		s.next = s.heapStart
	}
	heaputils.DebugValidate(s)
}

// Size retrieves the byte length of the region given to Init.
func (s *BumpStrategy) Size() int {
	return int(s.heapEnd - s.heapStart)
}

// SumFreeSize returns the number of bytes between the cursor and the end of
// the region. Dead bytes behind a nonzero-count cursor do not count as free.
func (s *BumpStrategy) SumFreeSize() int {
	return int(s.heapEnd - s.next)
}

// AllocationCount returns the number of live allocations.
func (s *BumpStrategy) AllocationCount() int {
	return s.allocations
}

// FreeRegionsCount returns 1 while any space remains past the cursor and 0
// once the region is exhausted.
func (s *BumpStrategy) FreeRegionsCount() int {
	if s.next < s.heapEnd {
		return 1
	}
	return 0
}

// IsEmpty will return true if the strategy has no live allocations
func (s *BumpStrategy) IsEmpty() bool {
	return s.allocations == 0
}

// Validate performs internal consistency checks on the cursor and counter.
func (s *BumpStrategy) Validate() error {
	if s.next < s.heapStart || s.next > s.heapEnd {
		return errors.Errorf("cursor %#x is outside the heap region [%#x, %#x)", uint64(s.next), uint64(s.heapStart), uint64(s.heapEnd))
	}
	if s.allocations < 0 {
		return errors.Errorf("live allocation counter is negative (%d)", s.allocations)
	}
	if s.allocations == 0 && s.next != s.heapStart {
		return errors.Errorf("no allocations are live but the cursor %#x has not been reset to %#x", uint64(s.next), uint64(s.heapStart))
	}
	return nil
}

// AddStatistics sums this heap's occupancy numbers into stats.
func (s *BumpStrategy) AddStatistics(stats *heaputils.Statistics) {
	stats.HeapCount++
	stats.HeapBytes += s.Size()
	stats.AllocationCount += s.allocations
	stats.AllocationBytes += int(s.next - s.heapStart)
}

// AddDetailedStatistics sums this heap's occupancy numbers and free-region
// detail into stats.
func (s *BumpStrategy) AddDetailedStatistics(stats *heaputils.DetailedStatistics) {
	s.AddStatistics(&stats.Statistics)
	if free := s.SumFreeSize(); free > 0 {
		stats.AddUnusedRange(free)
	}
}

// HeapJsonData populates a json object with information about this heap
func (s *BumpStrategy) HeapJsonData(json jwriter.ObjectState) {
	json.Name("Strategy").String("Bump")
	json.Name("TotalBytes").Int(s.Size())
	json.Name("FreeBytes").Int(s.SumFreeSize())
	json.Name("Allocations").Int(s.allocations)
	json.Name("Cursor").Int(int(s.next - s.heapStart))
}
