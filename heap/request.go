package heap

// Request describes a single allocation: a byte size and a required
// alignment. Align must be a power of two; anything else is a programmer
// error, checked only in debug_kheap builds. Deallocate must receive the
// same Request the block was allocated with, since strategies keep no
// per-allocation metadata of their own.
type Request struct {
	Size  int
	Align uint
}
