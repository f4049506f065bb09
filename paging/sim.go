package paging

import (
	cerrors "github.com/cockroachdb/errors"
)

// FrameArena is a simulated bank of physical memory. Frames are numbered
// from zero and handed out sequentially, the way a boot-time frame allocator
// walks its memory map. There is no way to return a frame.
type FrameArena struct {
	frames [][]byte
	next   int
}

// NewFrameArena creates an arena holding frameCount frames of backing
// storage.
func NewFrameArena(frameCount int) *FrameArena {
	frames := make([][]byte, frameCount)
	for i := range frames {
		frames[i] = make([]byte, PageSize)
	}
	return &FrameArena{frames: frames}
}

// AllocateFrame hands out the next unused frame, or false once the arena is
// exhausted.
func (a *FrameArena) AllocateFrame() (Frame, bool) {
	if a.next >= len(a.frames) {
		return 0, false
	}
	frame := Frame(a.next)
	a.next++
	return frame, true
}

// FramesRemaining returns how many frames have not been handed out yet.
func (a *FrameArena) FramesRemaining() int {
	return len(a.frames) - a.next
}

func (a *FrameArena) frameData(f Frame) ([]byte, error) {
	index := int(f)
	if index < 0 || index >= len(a.frames) {
		return nil, cerrors.Newf("frame %d is outside the arena's %d frames", f, len(a.frames))
	}
	return a.frames[index], nil
}

type mapping struct {
	frame Frame
	flags PageTableFlags
}

// AddressSpace is a simulated page table over a FrameArena. It implements
// Mapper for the heap bootstrap and the heap package's Memory interface for
// the strategies, translating each access page by page so that a touch of an
// unmapped address fails the way a hardware access would fault.
type AddressSpace struct {
	arena *FrameArena
	table map[Page]mapping
}

// NewAddressSpace creates an empty address space whose frames come from
// arena.
func NewAddressSpace(arena *FrameArena) *AddressSpace {
	return &AddressSpace{
		arena: arena,
		table: make(map[Page]mapping),
	}
}

// Map installs a translation from page to frame with the provided flags.
func (s *AddressSpace) Map(page Page, frame Frame, flags PageTableFlags) error {
	if _, ok := s.table[page]; ok {
		return cerrors.Wrapf(PageAlreadyMapped, "page %d", page)
	}
	if _, err := s.arena.frameData(frame); err != nil {
		return err
	}
	s.table[page] = mapping{frame: frame, flags: flags}
	return nil
}

// IsMapped returns whether the page has a translation.
func (s *AddressSpace) IsMapped(page Page) bool {
	_, ok := s.table[page]
	return ok
}

// Flags returns the flags the page was mapped with, and whether the page has
// a translation at all.
func (s *AddressSpace) Flags(page Page) (PageTableFlags, bool) {
	m, ok := s.table[page]
	return m.flags, ok
}

// Translate returns the physical address that addr maps to, or false when the
// page holding addr has no present translation.
func (s *AddressSpace) Translate(addr VirtAddr) (PhysAddr, bool) {
	m, ok := s.table[PageContaining(addr)]
	if !ok || !m.flags.Has(FlagPresent) {
		return 0, false
	}
	return m.frame.StartAddress() + PhysAddr(uint64(addr)%PageSize), true
}

// Load copies len(p) bytes starting at addr into p. The access may cross
// page boundaries; each page it touches must be mapped present.
func (s *AddressSpace) Load(addr VirtAddr, p []byte) error {
	return s.access(addr, p, false)
}

// Store copies p into memory starting at addr. The access may cross page
// boundaries; each page it touches must be mapped present and writable.
func (s *AddressSpace) Store(addr VirtAddr, p []byte) error {
	return s.access(addr, p, true)
}

func (s *AddressSpace) access(addr VirtAddr, p []byte, write bool) error {
	for len(p) > 0 {
		page := PageContaining(addr)
		m, ok := s.table[page]
		if !ok || !m.flags.Has(FlagPresent) {
			return cerrors.Wrapf(PageNotMapped, "access at %#x", uint64(addr))
		}
		if write && !m.flags.Has(FlagWritable) {
			return cerrors.Wrapf(PageNotWritable, "store at %#x", uint64(addr))
		}

		data, err := s.arena.frameData(m.frame)
		if err != nil {
			return err
		}

		offset := int(uint64(addr) % PageSize)
		n := PageSize - offset
		if n > len(p) {
			n = len(p)
		}
		if write {
			copy(data[offset:offset+n], p[:n])
		} else {
			copy(p[:n], data[offset:offset+n])
		}

		p = p[n:]
		addr += VirtAddr(n)
	}
	return nil
}
