package paging

// PageSize is the byte length of a single page or frame. Only 4KiB pages are
// supported.
const PageSize = 4096

// VirtAddr is an address in the kernel's virtual address space.
type VirtAddr uint64

// AlignUp rounds the address up to the nearest multiple of alignment, which
// must be a power of two. The result wraps on overflow; callers comparing
// the result against the input detect that case.
func (a VirtAddr) AlignUp(alignment uint64) VirtAddr {
	return VirtAddr((uint64(a) + alignment - 1) &^ (alignment - 1))
}

// AlignDown rounds the address down to the nearest multiple of alignment,
// which must be a power of two.
func (a VirtAddr) AlignDown(alignment uint64) VirtAddr {
	return VirtAddr(uint64(a) &^ (alignment - 1))
}

// IsAligned returns whether the address is a multiple of alignment, which
// must be a power of two.
func (a VirtAddr) IsAligned(alignment uint64) bool {
	return uint64(a)&(alignment-1) == 0
}

// PhysAddr is an address in physical memory.
type PhysAddr uint64
