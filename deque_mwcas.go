// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"code.hybscloud.com/spin"

	"code.hybscloud.com/lfdeque/epoch"
	"code.hybscloud.com/lfdeque/internal/arena"
	"code.hybscloud.com/lfdeque/mwcas"
)

// DequeMwCAS is a doubly linked deque on the mwcas engine.
//
// front.next is the front-most node and back.prev the back-most; the empty
// deque has front.next == back and back.prev == front. A push commits the
// sentinel link and the neighbour's back-link together. A pop commits the
// sentinel link, the neighbour's back-link, and the popped node's outward
// link (set to nil), so pops at the two ends of a two-element deque
// conflict instead of both unlinking.
type DequeMwCAS struct {
	nodes *arena.Arena[dnode]
	gc    *epoch.Reclaimer
}

// NewDequeMwCAS creates an mwcas-based deque.
func NewDequeMwCAS() *DequeMwCAS {
	return newDequeMwCAS(&Options{})
}

func newDequeMwCAS(o *Options) *DequeMwCAS {
	d := &DequeMwCAS{nodes: newDequeArena(o)}
	d.gc = epoch.New(o.participants, d.nodes.Free)
	d.nodes.At(frontHandle).next.StoreRelaxed(backHandle)
	d.nodes.At(backHandle).prev.StoreRelaxed(frontHandle)
	return d
}

// PushFront inserts x at the front end.
func (d *DequeMwCAS) PushFront(x Word) {
	g := d.gc.Enter()
	defer g.Exit()

	front := &d.nodes.At(frontHandle).next
	h, n := allocDNode(d.nodes, x, frontHandle, nilHandle)
	sw := spin.Wait{}
	for {
		first := mwcas.Read(front)
		n.next.StoreRelaxed(first)
		var desc mwcas.Descriptor
		desc.Add(front, first, h)
		desc.Add(&d.nodes.At(first).prev, frontHandle, h)
		if desc.Commit() {
			return
		}
		sw.Once()
	}
}

// PushBack inserts x at the back end.
func (d *DequeMwCAS) PushBack(x Word) {
	g := d.gc.Enter()
	defer g.Exit()

	back := &d.nodes.At(backHandle).prev
	h, n := allocDNode(d.nodes, x, nilHandle, backHandle)
	sw := spin.Wait{}
	for {
		last := mwcas.Read(back)
		n.prev.StoreRelaxed(last)
		var desc mwcas.Descriptor
		desc.Add(back, last, h)
		desc.Add(&d.nodes.At(last).next, backHandle, h)
		if desc.Commit() {
			return
		}
		sw.Once()
	}
}

// PopFront removes and returns the front element.
// Returns (0, ErrWouldBlock) if the deque is empty.
func (d *DequeMwCAS) PopFront() (Word, error) {
	g := d.gc.Enter()
	defer g.Exit()

	front := &d.nodes.At(frontHandle).next
	sw := spin.Wait{}
	for {
		first := mwcas.Read(front)
		if first == backHandle {
			return 0, ErrWouldBlock
		}
		n := d.nodes.At(first)
		next := mwcas.Read(&n.next)
		if next != nilHandle {
			elem := n.elem
			var desc mwcas.Descriptor
			desc.Add(front, first, next)
			desc.Add(&d.nodes.At(next).prev, first, frontHandle)
			desc.Add(&n.next, next, nilHandle)
			if desc.Commit() {
				g.Retire(first)
				return elem, nil
			}
		}
		sw.Once()
	}
}

// PopBack removes and returns the back element.
// Returns (0, ErrWouldBlock) if the deque is empty.
func (d *DequeMwCAS) PopBack() (Word, error) {
	g := d.gc.Enter()
	defer g.Exit()

	back := &d.nodes.At(backHandle).prev
	sw := spin.Wait{}
	for {
		last := mwcas.Read(back)
		if last == frontHandle {
			return 0, ErrWouldBlock
		}
		n := d.nodes.At(last)
		prev := mwcas.Read(&n.prev)
		if prev != nilHandle {
			elem := n.elem
			var desc mwcas.Descriptor
			desc.Add(back, last, prev)
			desc.Add(&d.nodes.At(prev).next, last, backHandle)
			desc.Add(&n.prev, prev, nilHandle)
			if desc.Commit() {
				g.Retire(last)
				return elem, nil
			}
		}
		sw.Once()
	}
}

// Front returns the front element. It is unspecified when the deque is
// empty.
func (d *DequeMwCAS) Front() Word {
	g := d.gc.Enter()
	defer g.Exit()

	return d.nodes.At(mwcas.Read(&d.nodes.At(frontHandle).next)).elem
}

// Back returns the back element. It is unspecified when the deque is empty.
func (d *DequeMwCAS) Back() Word {
	g := d.gc.Enter()
	defer g.Exit()

	return d.nodes.At(mwcas.Read(&d.nodes.At(backHandle).prev)).elem
}

// Empty reports whether the deque holds no element.
func (d *DequeMwCAS) Empty() bool {
	return mwcas.Read(&d.nodes.At(frontHandle).next) == backHandle
}

// IsValid reports whether next and prev links agree from front to back.
func (d *DequeMwCAS) IsValid() bool {
	return validDequeChain(d.nodes)
}
