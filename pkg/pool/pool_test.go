package pool

import (
	"errors"
	"testing"
)

func TestAllocateRoundTripsSize(t *testing.T) {
	p := New(1024)
	ptr := p.Allocate(20)
	if ptr == NullPointer {
		t.Fatalf("allocate failed")
	}
	if !p.Verify(ptr) {
		t.Fatalf("expected valid pointer")
	}
	// 20 rounds up to 32.
	if uint64(ptr)+32 > p.Capacity() {
		t.Fatalf("block extends past capacity")
	}
}

func TestFreeThenReallocateSucceeds(t *testing.T) {
	p := New(64)
	ptr := p.Allocate(64)
	if ptr == NullPointer {
		t.Fatalf("expected allocation to succeed")
	}
	p.Free(ptr)
	ptr2 := p.Allocate(64)
	if ptr2 == NullPointer {
		t.Fatalf("expected re-allocation after free to succeed")
	}
	if ptr2 != 0 {
		t.Fatalf("expected re-allocation to reuse offset 0, got %d", ptr2)
	}
}

func TestAllocateOutOfMemoryReturnsNull(t *testing.T) {
	p := New(16)
	a := p.Allocate(8)
	b := p.Allocate(8)
	if a == NullPointer || b == NullPointer {
		t.Fatalf("expected both min-size allocations to succeed")
	}
	if p.Allocate(8) != NullPointer {
		t.Fatalf("expected pool exhaustion to return NullPointer")
	}
}

func TestMinimumBlockSizeFloor(t *testing.T) {
	p := New(64)
	ptr := p.Allocate(1)
	if ptr == NullPointer {
		t.Fatalf("allocate failed")
	}
	// A 1-byte request should still consume a MinBlockSize block, leaving
	// room for exactly (64/8)-1 more min-size allocations.
	for i := 0; i < 7; i++ {
		if p.Allocate(1) == NullPointer {
			t.Fatalf("expected allocation %d to succeed", i)
		}
	}
	if p.Allocate(1) != NullPointer {
		t.Fatalf("expected pool to be exhausted")
	}
}

func TestFreeZeroesBytes(t *testing.T) {
	p := New(64)
	ptr := p.Allocate(8)
	if err := p.WriteBytes(ptr, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("write: %v", err)
	}
	p.Free(ptr)
	// Re-allocate the same slot via the small-block cache and confirm it
	// comes back zeroed.
	ptr2 := p.Allocate(8)
	data, err := p.Bytes(ptr2, 8)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("expected zeroed byte at %d, got %d", i, b)
		}
	}
}

func TestVerifyRejectsSentinelAndOutOfRange(t *testing.T) {
	p := New(64)
	if p.Verify(NullPointer) {
		t.Fatalf("sentinel must not verify")
	}
	if p.Verify(Pointer(1000)) {
		t.Fatalf("out-of-range pointer must not verify")
	}
}

func TestBytesRejectsInvalidPointer(t *testing.T) {
	p := New(64)
	if _, err := p.Bytes(NullPointer, 8); !errors.Is(err, ErrInvalidPointer) {
		t.Fatalf("expected ErrInvalidPointer, got %v", err)
	}
}

func TestNoFragmentationForSingleOutstandingAllocation(t *testing.T) {
	p := New(256)
	for n := uint64(1); n <= 256; n *= 2 {
		ptr := p.Allocate(n)
		if ptr == NullPointer {
			t.Fatalf("allocate(%d) failed", n)
		}
		p.Free(ptr)
		ptr2 := p.Allocate(n)
		if ptr2 == NullPointer {
			t.Fatalf("re-allocate(%d) after free failed", n)
		}
		p.Free(ptr2)
	}
}

func TestDoubleFreeIsBestEffortNoop(t *testing.T) {
	p := New(64)
	ptr := p.Allocate(8)
	p.Free(ptr)
	// A second free of the same (now-free) offset must not panic and must
	// not corrupt the tree: subsequent allocation still works.
	p.Free(ptr)
	if p.Allocate(8) == NullPointer {
		t.Fatalf("pool corrupted by double free")
	}
}
