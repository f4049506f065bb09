package paging

// Mapper installs virtual-to-physical translations into a page table. The
// heap bootstrap drives it once per heap page; it is implemented outside
// this subsystem (by the architecture's page-table code, or by AddressSpace
// in tests).
type Mapper interface {
	// Map installs a translation from page to frame with the provided flags.
	// Mapping a page that already has a translation is an error.
	Map(page Page, frame Frame, flags PageTableFlags) error
}

// FrameAllocator hands out unused physical frames. Returns false once
// physical memory is exhausted; there is no way to return a frame.
type FrameAllocator interface {
	AllocateFrame() (Frame, bool)
}
