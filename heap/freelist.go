package heap

import (
	"encoding/binary"
	"fmt"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"kheap/heaputils"
	"kheap/paging"
)

const (
	// freeNodeSize is the byte length of the header written at the start of
	// every free region: a little-endian uint64 size followed by the uint64
	// address of the next free region. Address 0 terminates the list.
	freeNodeSize = 16
	// freeNodeAlign is the alignment every free region start must satisfy so
	// the header's words are naturally aligned.
	freeNodeAlign = 8
)

// freeNode is the decoded form of a free-region header. It is reconstructed
// from heap bytes on every access and never outlives the operation that read
// it; the bytes in the region are the single source of truth.
type freeNode struct {
	size int
	next paging.VirtAddr
}

// FreeListStrategy tracks free regions through an intrusive singly linked
// list whose nodes live inside the free memory itself. Allocation is
// first-fit in list order, which is most-recently-freed first; regions are
// split when an allocation leaves a usable tail.
//
// Adjacent free regions are never merged. Repeated allocation and
// deallocation of varying sizes can fragment the region until no single
// request fits even though the aggregate free bytes would suffice; that
// behavior is part of this strategy's contract, asserted by its tests.
type FreeListStrategy struct {
	mem       Memory
	heapStart paging.VirtAddr
	heapSize  int

	// head is the address of the first free region, or 0 for an empty list.
	head        paging.VirtAddr
	freeRegions int
	sumFreeSize int
	allocations int
	track       allocationTracker
}

var _ Strategy = &FreeListStrategy{}

// NewFreeListStrategy creates an empty free-list strategy. It serves no
// allocations until Init.
func NewFreeListStrategy() *FreeListStrategy {
	return &FreeListStrategy{}
}

// Init hands the strategy its region, which becomes the single node of the
// free list. Must be called exactly once, before the first Allocate, with a
// fully mapped writable range.
func (s *FreeListStrategy) Init(mem Memory, start paging.VirtAddr, size int) {
	s.mem = mem
	s.heapStart = start
	s.heapSize = size
	s.head = 0
	s.freeRegions = 0
	s.sumFreeSize = 0
	s.allocations = 0
	s.track.trackInit()
	s.addFreeRegion(start, size)
}

func (s *FreeListStrategy) readNode(addr paging.VirtAddr) freeNode {
	var buf [freeNodeSize]byte
	if err := s.mem.Load(addr, buf[:]); err != nil {
		panic(fmt.Sprintf("heap: free list node at %#x is unreachable: %v", uint64(addr), err))
	}
	return freeNode{
		size: int(binary.LittleEndian.Uint64(buf[0:8])),
		next: paging.VirtAddr(binary.LittleEndian.Uint64(buf[8:16])),
	}
}

func (s *FreeListStrategy) writeNode(addr paging.VirtAddr, node freeNode) {
	var buf [freeNodeSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(node.size))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(node.next))
	if err := s.mem.Store(addr, buf[:]); err != nil {
		panic(fmt.Sprintf("heap: cannot write free list node at %#x: %v", uint64(addr), err))
	}
}

// addFreeRegion writes a node header into [addr, addr+size) and pushes it
// onto the front of the list. The region must be able to host a node: start
// aligned to freeNodeAlign, size at least freeNodeSize. adjustRequest
// guarantees that for every block this strategy hands out.
func (s *FreeListStrategy) addFreeRegion(addr paging.VirtAddr, size int) {
	if !addr.IsAligned(freeNodeAlign) || size < freeNodeSize {
		panic(fmt.Sprintf("heap: region [%#x, +%d) cannot hold a free list node", uint64(addr), size))
	}
	s.writeNode(addr, freeNode{size: size, next: s.head})
	s.head = addr
	s.freeRegions++
	s.sumFreeSize += size
}

// adjustRequest grows req so the resulting block can later host a free-list
// node: alignment at least freeNodeAlign, size rounded up to a multiple of
// the alignment and at least freeNodeSize. Debug builds also reserve
// heaputils.DebugMargin bytes past the requested size for the corruption
// marker. Allocate and Deallocate apply the same adjustment, so both sides
// agree on the block's true extent without any per-allocation metadata.
func adjustRequest(req Request) (int, uint) {
	align := req.Align
	if align < freeNodeAlign {
		align = freeNodeAlign
	}
	size := heaputils.AlignUp(req.Size+heaputils.DebugMargin, align)
	if size < freeNodeSize {
		size = freeNodeSize
	}
	return size, align
}

// allocFromRegion decides whether the free region with the given header can
// host an allocation of size bytes at align, returning the allocation's
// start address. A region is rejected when the aligned allocation does not
// fit, or when it fits but would leave a nonzero tail too small to hold a
// node header of its own.
func allocFromRegion(addr paging.VirtAddr, node freeNode, size int, align uint) (paging.VirtAddr, bool) {
	allocStart := addr.AlignUp(uint64(align))
	allocEnd := allocStart + paging.VirtAddr(size)
	if allocStart < addr || allocEnd < allocStart {
		return 0, false
	}

	regionEnd := addr + paging.VirtAddr(node.size)
	if allocEnd > regionEnd {
		return 0, false
	}

	excess := int(regionEnd - allocEnd)
	if excess > 0 && excess < freeNodeSize {
		return 0, false
	}

	return allocStart, true
}

// Allocate walks the list front to back and takes the first region that
// fits. The chosen region is unlinked; any tail past the allocation is
// pushed back onto the front of the list as a new region.
func (s *FreeListStrategy) Allocate(req Request) (paging.VirtAddr, error) {
	heaputils.DebugCheckPow2(req.Align, "req.Align")
	size, align := adjustRequest(req)

	var prev paging.VirtAddr // 0 while current is the list head
	current := s.head
	for current != 0 {
		node := s.readNode(current)
		allocStart, ok := allocFromRegion(current, node, size, align)
		if !ok {
			prev = current
			current = node.next
			continue
		}

		// Unlink the region, then give back the tail past the allocation.
		if prev == 0 {
			s.head = node.next
		} else {
			prevNode := s.readNode(prev)
			prevNode.next = node.next
			s.writeNode(prev, prevNode)
		}
		s.freeRegions--
		s.sumFreeSize -= node.size

		allocEnd := allocStart + paging.VirtAddr(size)
		excess := int(current + paging.VirtAddr(node.size) - allocEnd)
		if excess > 0 {
			s.addFreeRegion(allocEnd, excess)
		}

		s.allocations++
		writeMarginAfterAllocation(s.mem, allocStart+paging.VirtAddr(req.Size))
		s.track.trackAllocate(allocStart, size)
		heaputils.DebugValidate(s)
		return allocStart, nil
	}

	return 0, cerrors.Wrapf(heaputils.OutOfMemoryError, "no free region fits %d bytes aligned to %d", size, align)
}

// Deallocate recomputes the block's adjusted extent and pushes it onto the
// front of the list. The block is eligible for immediate reuse by the very
// next Allocate; it is never merged with adjacent free regions.
func (s *FreeListStrategy) Deallocate(addr paging.VirtAddr, req Request) {
	size, _ := adjustRequest(req)
	s.track.trackDeallocate(addr)
	validateMarginAfterAllocation(s.mem, addr+paging.VirtAddr(req.Size))
	s.addFreeRegion(addr, size)
	s.allocations--
	heaputils.DebugValidate(s)
}

// Size retrieves the byte length of the region given to Init.
func (s *FreeListStrategy) Size() int {
	return s.heapSize
}

// SumFreeSize returns the total bytes across all free regions. Fragmentation
// can make much of this unallocatable as a single block.
func (s *FreeListStrategy) SumFreeSize() int {
	return s.sumFreeSize
}

// AllocationCount returns the number of live allocations.
func (s *FreeListStrategy) AllocationCount() int {
	return s.allocations
}

// FreeRegionsCount returns the length of the free list.
func (s *FreeListStrategy) FreeRegionsCount() int {
	return s.freeRegions
}

// IsEmpty will return true if the strategy has no live allocations
func (s *FreeListStrategy) IsEmpty() bool {
	return s.allocations == 0
}

type freeSpan struct {
	addr paging.VirtAddr
	size int
}

// Validate walks the in-memory list and cross-checks it against the
// strategy's counters: every node must lie inside the heap region, be
// aligned and large enough to host a header, and no two nodes may overlap.
func (s *FreeListStrategy) Validate() error {
	heapEnd := s.heapStart + paging.VirtAddr(s.heapSize)

	var spans []freeSpan
	count := 0
	sum := 0
	for current := s.head; current != 0; {
		if count >= s.freeRegions+1 {
			return errors.Errorf("free list is longer than the recorded %d regions- the list may contain a cycle", s.freeRegions)
		}

		node := s.readNode(current)
		if !current.IsAligned(freeNodeAlign) {
			return errors.Errorf("free region at %#x is not aligned to %d", uint64(current), freeNodeAlign)
		}
		if node.size < freeNodeSize {
			return errors.Errorf("free region at %#x has size %d, too small to hold its own node header", uint64(current), node.size)
		}
		if current < s.heapStart || current+paging.VirtAddr(node.size) > heapEnd {
			return errors.Errorf("free region [%#x, +%d) extends outside the heap region [%#x, %#x)", uint64(current), node.size, uint64(s.heapStart), uint64(heapEnd))
		}

		spans = append(spans, freeSpan{addr: current, size: node.size})
		count++
		sum += node.size
		current = node.next
	}

	if count != s.freeRegions {
		return errors.Errorf("walked %d free regions but the strategy recorded %d", count, s.freeRegions)
	}
	if sum != s.sumFreeSize {
		return errors.Errorf("walked %d free bytes but the strategy recorded %d", sum, s.sumFreeSize)
	}

	slices.SortFunc(spans, func(a, b freeSpan) bool {
		return a.addr < b.addr
	})
	for i := 1; i < len(spans); i++ {
		previous := spans[i-1]
		if previous.addr+paging.VirtAddr(previous.size) > spans[i].addr {
			return errors.Errorf("free regions [%#x, +%d) and [%#x, +%d) overlap", uint64(previous.addr), previous.size, uint64(spans[i].addr), spans[i].size)
		}
	}

	return nil
}

// AddStatistics sums this heap's occupancy numbers into stats.
func (s *FreeListStrategy) AddStatistics(stats *heaputils.Statistics) {
	stats.HeapCount++
	stats.HeapBytes += s.heapSize
	stats.AllocationCount += s.allocations
	stats.AllocationBytes += s.heapSize - s.sumFreeSize
}

// AddDetailedStatistics sums this heap's occupancy numbers and free-region
// detail into stats. This walks the free list.
func (s *FreeListStrategy) AddDetailedStatistics(stats *heaputils.DetailedStatistics) {
	s.AddStatistics(&stats.Statistics)
	for current := s.head; current != 0; {
		node := s.readNode(current)
		stats.AddUnusedRange(node.size)
		current = node.next
	}
}

// HeapJsonData populates a json object with information about this heap
func (s *FreeListStrategy) HeapJsonData(json jwriter.ObjectState) {
	json.Name("Strategy").String("FreeList")
	json.Name("TotalBytes").Int(s.heapSize)
	json.Name("FreeBytes").Int(s.sumFreeSize)
	json.Name("Allocations").Int(s.allocations)
	json.Name("FreeRegions").Int(s.freeRegions)
}
