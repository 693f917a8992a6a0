// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mwcas_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/lfdeque/mwcas"
)

func TestCommitSucceeds(t *testing.T) {
	var a, b, c atomix.Uint64
	a.StoreRelaxed(1)
	b.StoreRelaxed(2)
	c.StoreRelaxed(3)

	var d mwcas.Descriptor
	d.Add(&c, 3, 30)
	d.Add(&a, 1, 10)
	d.Add(&b, 2, 20)
	if d.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", d.Len())
	}
	if !d.Commit() {
		t.Fatal("Commit: got false, want true")
	}
	for i, w := range []*atomix.Uint64{&a, &b, &c} {
		if got, want := mwcas.Read(w), uint64(10*(i+1)); got != want {
			t.Fatalf("word %d: got %d, want %d", i, got, want)
		}
	}
}

func TestCommitFailsAtomically(t *testing.T) {
	var a, b atomix.Uint64
	a.StoreRelaxed(1)
	b.StoreRelaxed(5)

	var d mwcas.Descriptor
	d.Add(&a, 1, 10)
	d.Add(&b, 2, 20)
	if d.Commit() {
		t.Fatal("Commit with a stale expected value: got true, want false")
	}
	if got := mwcas.Read(&a); got != 1 {
		t.Fatalf("a: got %d, want 1 (rolled back)", got)
	}
	if got := mwcas.Read(&b); got != 5 {
		t.Fatalf("b: got %d, want 5", got)
	}
}

func TestEmptyCommit(t *testing.T) {
	var d mwcas.Descriptor
	if !d.Commit() {
		t.Fatal("empty Commit: got false, want true")
	}
}

func TestReset(t *testing.T) {
	var a atomix.Uint64
	var d mwcas.Descriptor
	d.Add(&a, 7, 8)
	d.Reset()
	if d.Len() != 0 {
		t.Fatalf("Len after Reset: got %d, want 0", d.Len())
	}
	d.Add(&a, 0, 8)
	if !d.Commit() || mwcas.Read(&a) != 8 {
		t.Fatal("Commit after Reset did not apply")
	}
}

func TestPanics(t *testing.T) {
	var words [mwcas.MaxTargets + 1]atomix.Uint64
	tests := []struct {
		name string
		fn   func()
	}{
		{"duplicate address", func() {
			var d mwcas.Descriptor
			d.Add(&words[0], 0, 1)
			d.Add(&words[0], 0, 2)
			d.Commit()
		}},
		{"flag bit", func() {
			var d mwcas.Descriptor
			d.Add(&words[0], 0, mwcas.Flag)
		}},
		{"too many targets", func() {
			var d mwcas.Descriptor
			for i := range words {
				d.Add(&words[i], 0, 1)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

// TestConcurrentCounters has every goroutine increment two of four words
// together. Each word is touched by half of the commits, so every word
// ends at the same total.
func TestConcurrentCounters(t *testing.T) {
	const goroutines, perG = 8, 5000
	var words [4]atomix.Uint64

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perG {
				x := &words[(g+i)%4]
				y := &words[(g+i+2)%4]
				for {
					var d mwcas.Descriptor
					vx, vy := mwcas.Read(x), mwcas.Read(y)
					d.Add(x, vx, vx+1)
					d.Add(y, vy, vy+1)
					if d.Commit() {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	var sum uint64
	for i := range words {
		sum += mwcas.Read(&words[i])
	}
	if want := uint64(2 * goroutines * perG); sum != want {
		t.Fatalf("sum: got %d, want %d", sum, want)
	}
	if a, c := mwcas.Read(&words[0]), mwcas.Read(&words[2]); a != c {
		t.Fatalf("paired words diverged: %d != %d", a, c)
	}
}
