package paging

// Page is a page of virtual memory, identified by its page number (the
// virtual address divided by PageSize).
type Page uint64

// PageContaining returns the page that the provided virtual address falls
// into.
func PageContaining(addr VirtAddr) Page {
	return Page(uint64(addr) / PageSize)
}

// StartAddress returns the first virtual address of the page.
func (p Page) StartAddress() VirtAddr {
	return VirtAddr(uint64(p) * PageSize)
}

// Frame is a frame of physical memory, identified by its frame number (the
// physical address divided by PageSize).
type Frame uint64

// FrameContaining returns the frame that the provided physical address falls
// into.
func FrameContaining(addr PhysAddr) Frame {
	return Frame(uint64(addr) / PageSize)
}

// StartAddress returns the first physical address of the frame.
func (f Frame) StartAddress() PhysAddr {
	return PhysAddr(uint64(f) * PageSize)
}

// PageRange is an inclusive range of pages.
type PageRange struct {
	First Page
	Last  Page
}

// RangeInclusive returns the range covering every page from first through
// last.
func RangeInclusive(first, last Page) PageRange {
	return PageRange{First: first, Last: last}
}

// Count returns the number of pages in the range.
func (r PageRange) Count() int {
	return int(r.Last-r.First) + 1
}

// PageTableFlags is the set of attributes applied to a page mapping.
type PageTableFlags uint64

const (
	// FlagPresent marks the mapping as present in the page table. Accessing
	// a page without it faults.
	FlagPresent PageTableFlags = 1 << iota
	// FlagWritable permits stores through the mapping.
	FlagWritable
)

// Has returns whether every flag in other is set.
func (f PageTableFlags) Has(other PageTableFlags) bool {
	return f&other == other
}
