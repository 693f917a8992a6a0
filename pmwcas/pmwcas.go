// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pmwcas provides a lock-free multi-word compare-and-swap with a
// pooled descriptor, after the volatile variant of PMwCAS (Wang et al.,
// ICDE 2018).
//
// A descriptor is installed into its target words in address order. Each
// install is a restricted double-compare single-swap (RDCSS): the word
// takes the descriptor only while the descriptor is still undecided. Any
// goroutine that meets a descriptor in a word helps it finish, so no
// operation waits on a stalled one.
//
// Descriptors are recycled, so every access to a target word must happen
// between Epoch.Protect and Epoch.Unprotect:
//
//	e := pool.Epoch()
//	e.Protect()
//	old := e.ReadProtected(&word)
//	d := e.AllocateDescriptor()
//	d.AddEntry(&word, old, old+1)
//	ok := d.MwCAS()
//	e.Unprotect()
//
// Word values must leave bits 62 and 63 clear.
package pmwcas

import (
	"runtime"
	"slices"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/lfdeque/epoch"
	"code.hybscloud.com/lfdeque/internal/ring"
)

// MaxEntries is the maximum number of words in one descriptor.
const MaxEntries = 8

// DescriptorsPerPartition sizes a pool when NewPool is given 0.
const DescriptorsPerPartition = 2048

const (
	mwcasFlag uint64 = 1 << 63
	rdcssFlag uint64 = 1 << 62
	flagMask         = mwcasFlag | rdcssFlag
	entryBits        = 3
	entryMask        = 1<<entryBits - 1
)

const (
	statusUndecided uint64 = iota
	statusSucceeded
	statusFailed
)

type entry struct {
	addr *atomix.Uint64
	old  uint64
	new  uint64
}

// Descriptor is one multi-word CAS operation owned by the goroutine that
// allocated it until MwCAS returns.
type Descriptor struct {
	_       pad
	status  atomix.Uint64
	count   int
	entries [MaxEntries]entry
	index   uint64
	pool    *Pool
	guard   epoch.Guard
}

// Pool owns a fixed set of descriptors and the epochs that protect them.
type Pool struct {
	descs []Descriptor
	free  *ring.Ring
	gc    *epoch.Reclaimer
}

// NewPool creates a pool of size descriptors for up to partitions
// concurrently protected goroutines. size <= 0 selects
// DescriptorsPerPartition×partitions; partitions <= 0 selects GOMAXPROCS.
func NewPool(size, partitions int) *Pool {
	if partitions <= 0 {
		partitions = runtime.GOMAXPROCS(0)
	}
	if size <= 0 {
		size = DescriptorsPerPartition * partitions
	}
	if size < 2 {
		size = 2
	}
	p := &Pool{
		descs: make([]Descriptor, size),
		free:  ring.New(size),
	}
	p.gc = epoch.New(max(2*partitions, 32), p.release)
	for i := range p.descs {
		p.descs[i].index = uint64(i)
		p.descs[i].pool = p
		p.release(uint64(i))
	}
	return p
}

// Size returns the number of descriptors in the pool.
func (p *Pool) Size() int {
	return len(p.descs)
}

func (p *Pool) release(i uint64) {
	if err := p.free.Enqueue(i); err != nil {
		// The ring holds at least len(descs) values.
		panic("pmwcas: descriptor free list overflow")
	}
}

// Epoch is a protection handle. Protect and Unprotect bracket every
// section that reads target words or runs a descriptor.
type Epoch struct {
	pool  *Pool
	guard epoch.Guard
	held  bool
}

// Epoch returns an unprotected handle on p.
func (p *Pool) Epoch() Epoch {
	return Epoch{pool: p}
}

// Protect enters a protected section.
func (e *Epoch) Protect() {
	if e.held {
		panic("pmwcas: Protect on a protected epoch")
	}
	e.guard = e.pool.gc.Enter()
	e.held = true
}

// Unprotect leaves the protected section.
func (e *Epoch) Unprotect() {
	if !e.held {
		panic("pmwcas: Unprotect on an unprotected epoch")
	}
	e.held = false
	e.guard.Exit()
}

// IsProtected reports whether e is inside Protect/Unprotect.
func (e *Epoch) IsProtected() bool {
	return e.held
}

// AllocateDescriptor takes a descriptor from the pool, waiting for one to
// be recycled if the pool is exhausted.
func (e *Epoch) AllocateDescriptor() *Descriptor {
	if !e.held {
		panic("pmwcas: AllocateDescriptor outside Protect")
	}
	p := e.pool
	sw := spin.Wait{}
	for {
		i, err := p.free.Dequeue()
		if err == nil {
			d := &p.descs[i]
			d.count = 0
			d.guard = e.guard
			d.status.StoreRelease(statusUndecided)
			return d
		}
		// No descriptor is referenced between operations, so the
		// caller's own announcement need not hold the epoch back.
		e.guard.Refresh()
		p.gc.Collect()
		sw.Once()
	}
}

// ReadProtected returns the current value of addr, finishing any operation
// found installed there first.
func (e *Epoch) ReadProtected(addr *atomix.Uint64) uint64 {
	p := e.pool
	for {
		v := addr.LoadAcquire()
		switch {
		case v&rdcssFlag != 0:
			p.complete(v)
		case v&mwcasFlag != 0:
			p.run(p.descriptor(v))
		default:
			return v
		}
	}
}

// AddEntry appends a target word. It panics if the descriptor is full or a
// value uses the reserved flag bits.
func (d *Descriptor) AddEntry(addr *atomix.Uint64, old, new uint64) {
	if d.count == MaxEntries {
		panic("pmwcas: too many entries")
	}
	if (old|new)&flagMask != 0 {
		panic("pmwcas: value uses a reserved flag bit")
	}
	d.entries[d.count] = entry{addr: addr, old: old, new: new}
	d.count++
}

// MwCAS executes the descriptor and returns it to the pool. The descriptor
// must not be used after MwCAS returns.
func (d *Descriptor) MwCAS() bool {
	es := d.entries[:d.count]
	slices.SortFunc(es, func(a, b entry) int {
		return cmpAddr(a.addr, b.addr)
	})
	for i := 1; i < len(es); i++ {
		if es[i].addr == es[i-1].addr {
			panic("pmwcas: duplicate target address")
		}
	}
	ok := d.pool.run(d)
	d.guard.Retire(d.index)
	return ok
}

// run drives d to completion. Owners and helpers run the same steps; every
// step is idempotent once d's status is decided.
func (p *Pool) run(d *Descriptor) bool {
	self := mwcasFlag | d.index
	st := statusSucceeded

install:
	for i := 0; i < d.count; i++ {
		e := &d.entries[i]
		for {
			if d.status.LoadAcquire() != statusUndecided {
				break install
			}
			v := p.install(d, i)
			if v == e.old || v == self {
				break
			}
			if v&mwcasFlag != 0 {
				// Targets are installed in address order, so helping
				// cannot cycle back to d.
				p.run(p.descriptor(v))
				continue
			}
			st = statusFailed
			break install
		}
	}
	d.status.CompareAndSwapAcqRel(statusUndecided, st)

	ok := d.status.LoadAcquire() == statusSucceeded
	for i := 0; i < d.count; i++ {
		e := &d.entries[i]
		if ok {
			e.addr.CompareAndSwapAcqRel(self, e.new)
		} else {
			e.addr.CompareAndSwapAcqRel(self, e.old)
		}
	}
	return ok
}

// install places d into entry i if the word still holds the expected value
// and d is undecided. It returns the value it found in the word.
func (p *Pool) install(d *Descriptor, i int) uint64 {
	e := &d.entries[i]
	cond := rdcssFlag | d.index<<entryBits | uint64(i)
	for {
		cur := e.addr.LoadAcquire()
		if cur&rdcssFlag != 0 {
			p.complete(cur)
			continue
		}
		if cur != e.old {
			return cur
		}
		if e.addr.CompareAndSwapAcqRel(e.old, cond) {
			p.complete(cond)
			return e.old
		}
	}
}

// complete resolves an RDCSS condition word.
func (p *Pool) complete(cond uint64) {
	d := &p.descs[(cond&^flagMask)>>entryBits]
	e := &d.entries[cond&entryMask]
	if d.status.LoadAcquire() == statusUndecided {
		e.addr.CompareAndSwapAcqRel(cond, mwcasFlag|d.index)
	} else {
		e.addr.CompareAndSwapAcqRel(cond, e.old)
	}
}

func (p *Pool) descriptor(v uint64) *Descriptor {
	return &p.descs[v&^flagMask]
}

func cmpAddr(a, b *atomix.Uint64) int {
	pa, pb := uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(b))
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	}
	return 0
}

type pad [64]byte
