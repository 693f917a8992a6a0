// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pmwcas_test

import (
	"testing"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/lfdeque/pmwcas"
)

func TestNewPoolDefaults(t *testing.T) {
	if got := pmwcas.NewPool(0, 2).Size(); got != 2*pmwcas.DescriptorsPerPartition {
		t.Fatalf("Size: got %d, want %d", got, 2*pmwcas.DescriptorsPerPartition)
	}
	if got := pmwcas.NewPool(1, 1).Size(); got != 2 {
		t.Fatalf("Size of a tiny pool: got %d, want 2", got)
	}
}

func TestMwCASSucceeds(t *testing.T) {
	p := pmwcas.NewPool(16, 1)
	var a, b atomix.Uint64
	a.StoreRelaxed(1)
	b.StoreRelaxed(2)

	e := p.Epoch()
	e.Protect()
	defer e.Unprotect()

	d := e.AllocateDescriptor()
	d.AddEntry(&b, 2, 20)
	d.AddEntry(&a, 1, 10)
	if !d.MwCAS() {
		t.Fatal("MwCAS: got false, want true")
	}
	if x, y := e.ReadProtected(&a), e.ReadProtected(&b); x != 10 || y != 20 {
		t.Fatalf("words: got %d, %d, want 10, 20", x, y)
	}
}

func TestMwCASFailsAtomically(t *testing.T) {
	p := pmwcas.NewPool(16, 1)
	var a, b atomix.Uint64
	a.StoreRelaxed(1)
	b.StoreRelaxed(7)

	e := p.Epoch()
	e.Protect()
	defer e.Unprotect()

	d := e.AllocateDescriptor()
	d.AddEntry(&a, 1, 10)
	d.AddEntry(&b, 2, 20)
	if d.MwCAS() {
		t.Fatal("MwCAS with a stale old value: got true, want false")
	}
	if x, y := e.ReadProtected(&a), e.ReadProtected(&b); x != 1 || y != 7 {
		t.Fatalf("words: got %d, %d, want 1, 7", x, y)
	}
}

// TestDescriptorRecycling runs many more operations than the pool holds
// from a single protected section.
func TestDescriptorRecycling(t *testing.T) {
	p := pmwcas.NewPool(4, 1)
	var w atomix.Uint64

	e := p.Epoch()
	e.Protect()
	for range 1000 {
		v := e.ReadProtected(&w)
		d := e.AllocateDescriptor()
		d.AddEntry(&w, v, v+1)
		if !d.MwCAS() {
			t.Fatal("uncontended MwCAS failed")
		}
	}
	e.Unprotect()

	e.Protect()
	defer e.Unprotect()
	if got := e.ReadProtected(&w); got != 1000 {
		t.Fatalf("w: got %d, want 1000", got)
	}
}

func TestEpochState(t *testing.T) {
	e := pmwcas.NewPool(4, 1).Epoch()
	if e.IsProtected() {
		t.Fatal("new epoch: IsProtected: got true, want false")
	}
	e.Protect()
	if !e.IsProtected() {
		t.Fatal("after Protect: IsProtected: got false, want true")
	}
	e.Unprotect()
	if e.IsProtected() {
		t.Fatal("after Unprotect: IsProtected: got true, want false")
	}
}

func TestPanics(t *testing.T) {
	var words [pmwcas.MaxEntries + 1]atomix.Uint64
	p := pmwcas.NewPool(16, 1)
	tests := []struct {
		name string
		fn   func()
	}{
		{"Unprotect unprotected", func() {
			e := p.Epoch()
			e.Unprotect()
		}},
		{"Protect twice", func() {
			e := p.Epoch()
			e.Protect()
			e.Protect()
		}},
		{"AllocateDescriptor unprotected", func() {
			e := p.Epoch()
			e.AllocateDescriptor()
		}},
		{"reserved bit", func() {
			e := p.Epoch()
			e.Protect()
			e.AllocateDescriptor().AddEntry(&words[0], 0, 1<<62)
		}},
		{"too many entries", func() {
			e := p.Epoch()
			e.Protect()
			d := e.AllocateDescriptor()
			for i := range words {
				d.AddEntry(&words[i], 0, 1)
			}
		}},
		{"duplicate address", func() {
			e := p.Epoch()
			e.Protect()
			d := e.AllocateDescriptor()
			d.AddEntry(&words[0], 0, 1)
			d.AddEntry(&words[0], 0, 2)
			d.MwCAS()
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
