package heap

import "kheap/paging"

// Memory is the view strategies use to reach the bytes of the mapped heap
// region. Free-list nodes live inside the free memory itself, so strategies
// reconstruct a node view through Load and Store on every access instead of
// holding references into the region.
//
// After a successful bootstrap the whole heap range is mapped and writable,
// so a Load or Store failure inside that range is the software equivalent of
// a page fault: strategies treat it as fatal.
type Memory interface {
	// Load copies len(p) bytes starting at addr into p.
	Load(addr paging.VirtAddr, p []byte) error
	// Store copies p into memory starting at addr.
	Store(addr paging.VirtAddr, p []byte) error
}
