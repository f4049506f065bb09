package heap

import (
	"encoding/binary"
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"

	"kheap/heaputils"
	"kheap/paging"
)

// blockSizes lists the size classes. Every class size doubles as the class's
// block alignment, so the sizes must be powers of two. Requests that exceed
// the largest class bypass the classes entirely.
var blockSizes = [...]int{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

// classNextSize is the byte length of the header in a free class block: just
// the little-endian uint64 address of the next free block in the class.
// Blocks share their class's size, so no size word is needed, which is why
// the smallest class can be half a free-list node.
const classNextSize = 8

// FixedBlockStrategy buckets small requests into power-of-two size classes,
// each with its own intrusive free list, for allocation and deallocation
// cost independent of heap occupancy. An empty class is refilled by carving
// a fresh block out of an embedded free-list fallback; requests too large
// for any class delegate to the fallback wholesale and pay its search and
// fragmentation costs.
//
// A block returned to a class list stays in that class forever; it is never
// handed back to the fallback. Internal fragmentation is bounded by the gap
// between a request and the next class size.
type FixedBlockStrategy struct {
	mem       Memory
	heapStart paging.VirtAddr
	heapSize  int

	// classHeads holds the first free block of each class, 0 for empty.
	classHeads  [len(blockSizes)]paging.VirtAddr
	classCounts [len(blockSizes)]int
	// classAllocations counts live blocks served from a class; oversize
	// allocations live in the fallback and are counted separately.
	classAllocations    int
	oversizeAllocations int

	fallback FreeListStrategy
	track    allocationTracker
}

var _ Strategy = &FixedBlockStrategy{}

// NewFixedBlockStrategy creates an empty fixed-size-block strategy. It
// serves no allocations until Init.
func NewFixedBlockStrategy() *FixedBlockStrategy {
	return &FixedBlockStrategy{}
}

// Init hands the strategy its region. The whole region starts out owned by
// the fallback; class lists fill lazily as blocks are carved and freed.
// Must be called exactly once, before the first Allocate, with a fully
// mapped writable range.
func (s *FixedBlockStrategy) Init(mem Memory, start paging.VirtAddr, size int) {
	s.mem = mem
	s.heapStart = start
	s.heapSize = size
	for i := range s.classHeads {
		s.classHeads[i] = 0
		s.classCounts[i] = 0
	}
	s.classAllocations = 0
	s.oversizeAllocations = 0
	s.track.trackInit()
	s.fallback.Init(mem, start, size)
}

// classIndex returns the index of the smallest class that can serve req, or
// -1 when the request must go to the fallback. The class must cover both the
// size (plus the debug margin in debug builds) and the alignment, because
// blocks are only guaranteed to be aligned to their own class size.
func classIndex(req Request) int {
	need := req.Size + heaputils.DebugMargin
	if int(req.Align) > need {
		need = int(req.Align)
	}
	for i, size := range blockSizes {
		if size >= need {
			return i
		}
	}
	return -1
}

func (s *FixedBlockStrategy) readNext(addr paging.VirtAddr) paging.VirtAddr {
	var buf [classNextSize]byte
	if err := s.mem.Load(addr, buf[:]); err != nil {
		panic(fmt.Sprintf("heap: class block at %#x is unreachable: %v", uint64(addr), err))
	}
	return paging.VirtAddr(binary.LittleEndian.Uint64(buf[:]))
}

func (s *FixedBlockStrategy) writeNext(addr paging.VirtAddr, next paging.VirtAddr) {
	var buf [classNextSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(next))
	if err := s.mem.Store(addr, buf[:]); err != nil {
		panic(fmt.Sprintf("heap: cannot write class block at %#x: %v", uint64(addr), err))
	}
}

// Allocate serves the request from the smallest fitting class: pop the
// class's list head, or carve a new block of the class size from the
// fallback when the list is empty. Requests too large for any class delegate
// to the fallback unchanged.
func (s *FixedBlockStrategy) Allocate(req Request) (paging.VirtAddr, error) {
	heaputils.DebugCheckPow2(req.Align, "req.Align")

	index := classIndex(req)
	if index < 0 {
		addr, err := s.fallback.Allocate(req)
		if err != nil {
			return 0, err
		}
		s.oversizeAllocations++
		return addr, nil
	}

	if head := s.classHeads[index]; head != 0 {
		s.classHeads[index] = s.readNext(head)
		s.classCounts[index]--
		s.classAllocations++
		writeMarginAfterAllocation(s.mem, head+paging.VirtAddr(req.Size))
		s.track.trackAllocate(head, blockSizes[index])
		heaputils.DebugValidate(s)
		return head, nil
	}

	// Class list is empty; carve a fresh block out of the fallback heap. The
	// block size doubles as the alignment so every block of the class can be
	// handed out for any request that selected it.
	blockSize := blockSizes[index]
	addr, err := s.fallback.Allocate(Request{Size: blockSize, Align: uint(blockSize)})
	if err != nil {
		return 0, err
	}
	s.classAllocations++
	writeMarginAfterAllocation(s.mem, addr+paging.VirtAddr(req.Size))
	s.track.trackAllocate(addr, blockSize)
	heaputils.DebugValidate(s)
	return addr, nil
}

// Deallocate recomputes the class selection and pushes the block onto that
// class's list in O(1), with no search. Oversize blocks go back to the
// fallback.
func (s *FixedBlockStrategy) Deallocate(addr paging.VirtAddr, req Request) {
	index := classIndex(req)
	if index < 0 {
		s.fallback.Deallocate(addr, req)
		s.oversizeAllocations--
		return
	}

	s.track.trackDeallocate(addr)
	validateMarginAfterAllocation(s.mem, addr+paging.VirtAddr(req.Size))
	s.writeNext(addr, s.classHeads[index])
	s.classHeads[index] = addr
	s.classCounts[index]++
	s.classAllocations--
	heaputils.DebugValidate(s)
}

// Size retrieves the byte length of the region given to Init.
func (s *FixedBlockStrategy) Size() int {
	return s.heapSize
}

// SumFreeSize returns the free bytes sitting in class lists plus the
// fallback's free bytes. Blocks carved for a class count as allocated from
// the fallback's point of view, so there is no double counting.
func (s *FixedBlockStrategy) SumFreeSize() int {
	free := s.fallback.SumFreeSize()
	for i, count := range s.classCounts {
		free += count * blockSizes[i]
	}
	return free
}

// AllocationCount returns the number of live allocations across class-served
// and oversize blocks.
func (s *FixedBlockStrategy) AllocationCount() int {
	return s.classAllocations + s.oversizeAllocations
}

// FreeRegionsCount returns the number of free class blocks plus the
// fallback's free regions.
func (s *FixedBlockStrategy) FreeRegionsCount() int {
	regions := s.fallback.FreeRegionsCount()
	for _, count := range s.classCounts {
		regions += count
	}
	return regions
}

// IsEmpty will return true if the strategy has no live allocations
func (s *FixedBlockStrategy) IsEmpty() bool {
	return s.AllocationCount() == 0
}

// Validate checks every class list against its recorded length and block
// invariants, then validates the fallback.
func (s *FixedBlockStrategy) Validate() error {
	heapEnd := s.heapStart + paging.VirtAddr(s.heapSize)

	for i, head := range s.classHeads {
		blockSize := blockSizes[i]
		count := 0
		for current := head; current != 0; {
			if count >= s.classCounts[i]+1 {
				return errors.Errorf("the %d-byte class list is longer than the recorded %d blocks- the list may contain a cycle", blockSize, s.classCounts[i])
			}
			if !current.IsAligned(uint64(blockSize)) {
				return errors.Errorf("free block at %#x in the %d-byte class is not aligned to its class size", uint64(current), blockSize)
			}
			if current < s.heapStart || current+paging.VirtAddr(blockSize) > heapEnd {
				return errors.Errorf("free block [%#x, +%d) extends outside the heap region [%#x, %#x)", uint64(current), blockSize, uint64(s.heapStart), uint64(heapEnd))
			}
			count++
			current = s.readNext(current)
		}
		if count != s.classCounts[i] {
			return errors.Errorf("walked %d free blocks in the %d-byte class but the strategy recorded %d", count, blockSize, s.classCounts[i])
		}
	}

	if s.classAllocations < 0 || s.oversizeAllocations < 0 {
		return errors.Errorf("negative live counters: %d class, %d oversize", s.classAllocations, s.oversizeAllocations)
	}

	return s.fallback.Validate()
}

// AddStatistics sums this heap's occupancy numbers into stats. The heap is
// counted once; class-list free bytes are subtracted from the fallback's
// notion of used bytes.
func (s *FixedBlockStrategy) AddStatistics(stats *heaputils.Statistics) {
	stats.HeapCount++
	stats.HeapBytes += s.heapSize
	stats.AllocationCount += s.AllocationCount()
	stats.AllocationBytes += s.heapSize - s.SumFreeSize()
}

// AddDetailedStatistics sums this heap's occupancy numbers and free-region
// detail into stats. Each free class block counts as its own unused range,
// matching the reuse granularity of the strategy.
func (s *FixedBlockStrategy) AddDetailedStatistics(stats *heaputils.DetailedStatistics) {
	s.AddStatistics(&stats.Statistics)
	for i, count := range s.classCounts {
		for j := 0; j < count; j++ {
			stats.AddUnusedRange(blockSizes[i])
		}
	}
	for current := s.fallback.head; current != 0; {
		node := s.fallback.readNode(current)
		stats.AddUnusedRange(node.size)
		current = node.next
	}
}

// HeapJsonData populates a json object with information about this heap
func (s *FixedBlockStrategy) HeapJsonData(json jwriter.ObjectState) {
	json.Name("Strategy").String("FixedBlock")
	json.Name("TotalBytes").Int(s.heapSize)
	json.Name("FreeBytes").Int(s.SumFreeSize())
	json.Name("Allocations").Int(s.AllocationCount())

	classes := json.Name("Classes").Array()
	for i, count := range s.classCounts {
		class := classes.Object()
		class.Name("BlockSize").Int(blockSizes[i])
		class.Name("FreeBlocks").Int(count)
		class.End()
	}
	classes.End()

	fallback := json.Name("Fallback").Object()
	s.fallback.HeapJsonData(fallback)
	fallback.End()
}
