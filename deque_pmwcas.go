// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"code.hybscloud.com/lfdeque/epoch"
	"code.hybscloud.com/lfdeque/internal/arena"
	"code.hybscloud.com/lfdeque/pmwcas"
)

// DequePMwCAS is the doubly linked deque of [DequeMwCAS] on the pmwcas
// provider. Descriptors come from a pool and every section that touches
// link words is bracketed by Protect and Unprotect.
type DequePMwCAS struct {
	nodes *arena.Arena[dnode]
	gc    *epoch.Reclaimer
	pool  *pmwcas.Pool
}

// NewDequePMwCAS creates a pmwcas-based deque sized for the given number
// of concurrent goroutines.
func NewDequePMwCAS(threads int) *DequePMwCAS {
	return newDequePMwCAS(&Options{partitions: threads})
}

func newDequePMwCAS(o *Options) *DequePMwCAS {
	d := &DequePMwCAS{
		nodes: newDequeArena(o),
		pool:  pmwcas.NewPool(o.descriptors, o.partitions),
	}
	d.gc = epoch.New(o.participants, d.nodes.Free)
	d.nodes.At(frontHandle).next.StoreRelaxed(backHandle)
	d.nodes.At(backHandle).prev.StoreRelaxed(frontHandle)
	return d
}

// PushFront inserts x at the front end.
func (d *DequePMwCAS) PushFront(x Word) {
	g := d.gc.Enter()
	defer g.Exit()
	e := d.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	front := &d.nodes.At(frontHandle).next
	h, n := allocDNode(d.nodes, x, frontHandle, nilHandle)
	for {
		first := e.ReadProtected(front)
		n.next.StoreRelaxed(first)
		desc := e.AllocateDescriptor()
		desc.AddEntry(front, first, h)
		desc.AddEntry(&d.nodes.At(first).prev, frontHandle, h)
		if desc.MwCAS() {
			return
		}
	}
}

// PushBack inserts x at the back end.
func (d *DequePMwCAS) PushBack(x Word) {
	g := d.gc.Enter()
	defer g.Exit()
	e := d.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	back := &d.nodes.At(backHandle).prev
	h, n := allocDNode(d.nodes, x, nilHandle, backHandle)
	for {
		last := e.ReadProtected(back)
		n.prev.StoreRelaxed(last)
		desc := e.AllocateDescriptor()
		desc.AddEntry(back, last, h)
		desc.AddEntry(&d.nodes.At(last).next, backHandle, h)
		if desc.MwCAS() {
			return
		}
	}
}

// PopFront removes and returns the front element.
// Returns (0, ErrWouldBlock) if the deque is empty.
func (d *DequePMwCAS) PopFront() (Word, error) {
	g := d.gc.Enter()
	defer g.Exit()
	e := d.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	front := &d.nodes.At(frontHandle).next
	for {
		first := e.ReadProtected(front)
		if first == backHandle {
			return 0, ErrWouldBlock
		}
		n := d.nodes.At(first)
		next := e.ReadProtected(&n.next)
		if next == nilHandle {
			continue
		}
		elem := n.elem
		desc := e.AllocateDescriptor()
		desc.AddEntry(front, first, next)
		desc.AddEntry(&d.nodes.At(next).prev, first, frontHandle)
		desc.AddEntry(&n.next, next, nilHandle)
		if desc.MwCAS() {
			g.Retire(first)
			return elem, nil
		}
	}
}

// PopBack removes and returns the back element.
// Returns (0, ErrWouldBlock) if the deque is empty.
func (d *DequePMwCAS) PopBack() (Word, error) {
	g := d.gc.Enter()
	defer g.Exit()
	e := d.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	back := &d.nodes.At(backHandle).prev
	for {
		last := e.ReadProtected(back)
		if last == frontHandle {
			return 0, ErrWouldBlock
		}
		n := d.nodes.At(last)
		prev := e.ReadProtected(&n.prev)
		if prev == nilHandle {
			continue
		}
		elem := n.elem
		desc := e.AllocateDescriptor()
		desc.AddEntry(back, last, prev)
		desc.AddEntry(&d.nodes.At(prev).next, last, backHandle)
		desc.AddEntry(&n.prev, prev, nilHandle)
		if desc.MwCAS() {
			g.Retire(last)
			return elem, nil
		}
	}
}

// Front returns the front element. It is unspecified when the deque is
// empty.
func (d *DequePMwCAS) Front() Word {
	g := d.gc.Enter()
	defer g.Exit()
	e := d.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	return d.nodes.At(e.ReadProtected(&d.nodes.At(frontHandle).next)).elem
}

// Back returns the back element. It is unspecified when the deque is empty.
func (d *DequePMwCAS) Back() Word {
	g := d.gc.Enter()
	defer g.Exit()
	e := d.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	return d.nodes.At(e.ReadProtected(&d.nodes.At(backHandle).prev)).elem
}

// Empty reports whether the deque holds no element.
func (d *DequePMwCAS) Empty() bool {
	e := d.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	return e.ReadProtected(&d.nodes.At(frontHandle).next) == backHandle
}

// IsValid reports whether next and prev links agree from front to back.
func (d *DequePMwCAS) IsValid() bool {
	return validDequeChain(d.nodes)
}
