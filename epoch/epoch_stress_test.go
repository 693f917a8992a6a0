// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// Slots hand their retire bags from one goroutine to the next through
// atomix compare-and-swap, which the race detector cannot observe.

package epoch_test

import (
	"slices"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/lfdeque/epoch"
)

// TestEnterWaitsForSlot exhausts a one-slot reclaimer.
func TestEnterWaitsForSlot(t *testing.T) {
	r := epoch.New(1, func(uint64) {})
	g := r.Enter()

	entered := make(chan struct{})
	go func() {
		g2 := r.Enter()
		close(entered)
		g2.Exit()
	}()

	select {
	case <-entered:
		t.Fatal("Enter succeeded with no free slot")
	case <-time.After(20 * time.Millisecond):
	}
	g.Exit()
	select {
	case <-entered:
	case <-time.After(10 * time.Second):
		t.Fatal("Enter did not proceed after the slot was released")
	}
}

func TestConcurrentRetireFreesOnce(t *testing.T) {
	const goroutines, perG = 8, 5000
	var f freed
	r := epoch.New(0, f.free)

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perG {
				guard := r.Enter()
				guard.Retire(uint64(g*perG + i + 1))
				guard.Exit()
				if i%1000 == 0 {
					r.Collect()
				}
			}
		}()
	}
	wg.Wait()
	r.Flush()

	hs := slices.Clone(f.hs)
	if len(hs) != goroutines*perG {
		t.Fatalf("freed: got %d, want %d", len(hs), goroutines*perG)
	}
	slices.Sort(hs)
	if len(slices.Compact(hs)) != goroutines*perG {
		t.Fatal("a handle was freed twice")
	}
}
