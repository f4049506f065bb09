package heap

import "sync/atomic"

// Locked gives single-owner, mutually exclusive access to an allocation
// strategy through a spin lock. Acquisition busy-waits: there is no
// scheduler at this layer to hand the CPU to, so a contended Lock burns
// cycles until the holder calls Unlock. The lock is not recursive and is
// never poisoned- a panic while holding it leaves it held, which is
// acceptable only because a kernel panic halts the system.
//
// Reacquiring the lock from the same execution context deadlocks. In
// particular, an interrupt handler that allocates while the interrupted code
// holds the lock spins forever. Code outside interrupt context must keep
// interrupts masked across heap operations, or the kernel must guarantee
// that no interrupt path allocates.
type Locked[S any] struct {
	state uint32
	inner S
}

// NewLocked wraps inner in a released lock.
func NewLocked[S any](inner S) *Locked[S] {
	return &Locked[S]{inner: inner}
}

// Lock busy-waits until the lock is free, acquires it, and returns the
// wrapped value. Every use of the returned pointer must happen before the
// matching Unlock.
func (l *Locked[S]) Lock() *S {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
	}
	return &l.inner
}

// Unlock releases the lock. Calling it without holding the lock corrupts the
// lock state; this is not checked.
func (l *Locked[S]) Unlock() {
	atomic.StoreUint32(&l.state, 0)
}
