// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena_test

import (
	"slices"
	"sync"
	"testing"

	"code.hybscloud.com/lfdeque/internal/arena"
)

type node struct {
	v uint64
}

func TestAllocSkipsReserved(t *testing.T) {
	a := arena.New[node](3, 0)
	if got := a.Len(); got != 3 {
		t.Fatalf("Len: got %d, want 3", got)
	}
	for want := uint64(3); want < 6; want++ {
		if got := a.Alloc(); got != want {
			t.Fatalf("Alloc: got %d, want %d", got, want)
		}
	}
	if got := a.Len(); got != 6 {
		t.Fatalf("Len: got %d, want 6", got)
	}
}

func TestFreeRecycles(t *testing.T) {
	a := arena.New[node](1, 0)
	h := a.Alloc()
	a.At(h).v = 42
	a.Free(h)
	if got := a.Alloc(); got != h {
		t.Fatalf("Alloc after Free: got %d, want %d", got, h)
	}
	// Recycled nodes keep their contents.
	if got := a.At(h).v; got != 42 {
		t.Fatalf("At(%d).v: got %d, want 42", h, got)
	}
}

func TestAtStableAcrossGrowth(t *testing.T) {
	a := arena.New[node](1, 0)
	first := a.Alloc()
	p := a.At(first)
	p.v = 7

	hs := make([]uint64, 3*4096)
	for i := range hs {
		hs[i] = a.Alloc()
		a.At(hs[i]).v = hs[i]
	}
	if a.At(first) != p || p.v != 7 {
		t.Fatal("node moved or changed while the arena grew")
	}
	for _, h := range hs {
		if got := a.At(h).v; got != h {
			t.Fatalf("At(%d).v: got %d, want %d", h, got, h)
		}
	}
}

func TestFreeDropsWhenRingFull(t *testing.T) {
	a := arena.New[node](1, 2)
	hs := []uint64{a.Alloc(), a.Alloc(), a.Alloc()}
	for _, h := range hs {
		a.Free(h)
	}
	if got := a.Dropped(); got != 1 {
		t.Fatalf("Dropped: got %d, want 1", got)
	}
}

func TestNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New(0, 0): expected panic")
		}
	}()
	arena.New[node](0, 0)
}

func TestConcurrentAllocUnique(t *testing.T) {
	const goroutines, perG = 8, 5000
	a := arena.New[node](3, 0)

	var wg sync.WaitGroup
	got := make([][]uint64, goroutines)
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perG {
				got[g] = append(got[g], a.Alloc())
			}
		}()
	}
	wg.Wait()

	all := slices.Concat(got...)
	slices.Sort(all)
	if len(slices.Compact(all)) != goroutines*perG {
		t.Fatal("Alloc returned a handle twice")
	}
	if all[0] < 3 {
		t.Fatalf("Alloc returned reserved handle %d", all[0])
	}
}
