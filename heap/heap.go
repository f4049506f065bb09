package heap

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"

	"kheap/paging"
)

const (
	// Start is the virtual address where the heap region begins. It is fixed
	// at build time; changing it requires re-deriving the page range mapped
	// by Init.
	Start paging.VirtAddr = 0x4444_4444_0000
	// Size is the byte length of the heap region, fixed at build time. The
	// region cannot grow at runtime.
	Size = 100 * 1024
)

// Init backs the heap's virtual range with physical frames and hands the
// mapped region to the active strategy. Every page covering
// [Start, Start+Size) gets one frame from frameAllocator and a
// present+writable mapping through mapper; a single failure aborts the whole
// bootstrap with no partial-heap fallback.
//
// Init must run exactly once, before the first call to Allocate. Neither
// constraint is checked; violating either is undefined behavior.
func Init(logger *slog.Logger, mapper paging.Mapper, frameAllocator paging.FrameAllocator, mem Memory) error {
	pageRange := paging.RangeInclusive(
		paging.PageContaining(Start),
		paging.PageContaining(Start+Size-1),
	)

	for page := pageRange.First; page <= pageRange.Last; page++ {
		frame, ok := frameAllocator.AllocateFrame()
		if !ok {
			return cerrors.Wrapf(paging.FrameAllocationFailed, "mapping heap page %d", page)
		}
		if err := mapper.Map(page, frame, paging.FlagPresent|paging.FlagWritable); err != nil {
			return cerrors.Wrapf(err, "mapping heap page %d", page)
		}
	}

	allocator := Global.Lock()
	allocator.Init(mem, Start, Size)
	Global.Unlock()

	logger.Info("kernel heap initialized",
		slog.Uint64("start", uint64(Start)),
		slog.Int("bytes", Size),
		slog.Int("pages", pageRange.Count()),
	)
	return nil
}

// Allocate is the process-wide allocation hook. It routes through the global
// locked strategy; see Locked for the reentrancy hazard this implies for
// interrupt handlers.
func Allocate(req Request) (paging.VirtAddr, error) {
	allocator := Global.Lock()
	defer Global.Unlock()
	return allocator.Allocate(req)
}

// Deallocate is the process-wide deallocation hook. req must be the Request
// the block was allocated with.
func Deallocate(addr paging.VirtAddr, req Request) {
	allocator := Global.Lock()
	defer Global.Unlock()
	allocator.Deallocate(addr, req)
}
