package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"golang.org/x/exp/slog"

	"kheap/heap"
	"kheap/paging"
)

// heapsim boots a simulated address space, bootstraps the kernel heap over
// it, runs a few classic allocation workloads through the global hook, and
// finishes with a JSON dump of the active strategy's state.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr))

	arena := paging.NewFrameArena(32)
	space := paging.NewAddressSpace(arena)

	if err := heap.Init(logger, space, arena, space); err != nil {
		logger.Error("heap bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}

	simpleAllocation(logger, space)
	growingRun(logger, space)
	manyBoxes(logger)

	w := jwriter.NewWriter()
	obj := w.Object()
	allocator := heap.Global.Lock()
	allocator.HeapJsonData(obj)
	heap.Global.Unlock()
	obj.End()

	if err := w.Error(); err != nil {
		logger.Error("building heap dump failed", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(string(w.Bytes()))
}

// simpleAllocation stores one boxed value and reads it back.
func simpleAllocation(logger *slog.Logger, space *paging.AddressSpace) {
	req := heap.Request{Size: 8, Align: 8}
	addr := mustAllocate(logger, req)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 0xdeadbeef)
	if err := space.Store(addr, buf[:]); err != nil {
		logger.Error("store through fresh allocation failed", slog.Any("error", err))
		os.Exit(1)
	}
	var back [8]byte
	if err := space.Load(addr, back[:]); err != nil || binary.LittleEndian.Uint64(back[:]) != 0xdeadbeef {
		logger.Error("loaded value does not match stored value")
		os.Exit(1)
	}

	phys, ok := space.Translate(addr)
	if !ok {
		logger.Error("allocated address has no translation", slog.Uint64("addr", uint64(addr)))
		os.Exit(1)
	}

	heap.Deallocate(addr, req)
	logger.Info("simple allocation workload done",
		slog.Uint64("addr", uint64(addr)),
		slog.Uint64("phys", uint64(phys)),
		slog.Uint64("frame", uint64(paging.FrameContaining(phys))))
}

// growingRun doubles an allocation from 16 bytes to 4KiB, freeing each
// previous run, the way a growable array reallocates.
func growingRun(logger *slog.Logger, mem heap.Memory) {
	var prev paging.VirtAddr
	var prevReq heap.Request

	for size := 16; size <= 4096; size *= 2 {
		req := heap.Request{Size: size, Align: 8}
		addr := mustAllocate(logger, req)
		if prev != 0 {
			heap.Deallocate(prev, prevReq)
		}
		prev = addr
		prevReq = req
	}
	heap.Deallocate(prev, prevReq)
	logger.Info("growing run workload done")
}

// manyBoxes allocates and immediately frees a thousand small boxes. Under
// the free-list strategy every round reuses the front node; under bump the
// counter returning to zero each round resets the cursor.
func manyBoxes(logger *slog.Logger) {
	req := heap.Request{Size: 16, Align: 8}
	for i := 0; i < 1000; i++ {
		addr := mustAllocate(logger, req)
		heap.Deallocate(addr, req)
	}
	logger.Info("many boxes workload done")
}

func mustAllocate(logger *slog.Logger, req heap.Request) paging.VirtAddr {
	addr, err := heap.Allocate(req)
	if err != nil {
		// Infrastructure that cannot tolerate failure treats exhaustion as
		// fatal; there is no retry.
		logger.Error("allocation failed", slog.Int("size", req.Size), slog.Any("error", err))
		os.Exit(1)
	}
	return addr
}
