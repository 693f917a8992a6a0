// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"code.hybscloud.com/lfdeque/epoch"
	"code.hybscloud.com/lfdeque/internal/arena"
	"code.hybscloud.com/lfdeque/pmwcas"
)

// QueuePMwCAS is a sentinel-bracketed linked queue on the pmwcas provider.
//
// front.next is the first node, the last node links to back, and back.next
// points at the last node (front when empty). Popping the last element
// swaps both sentinel links back to each other in one MwCAS, which is the
// linearization point of the emptiness transition.
type QueuePMwCAS struct {
	nodes *arena.Arena[qnode]
	gc    *epoch.Reclaimer
	pool  *pmwcas.Pool
}

// NewQueuePMwCAS creates a pmwcas-based queue sized for the given number
// of concurrent goroutines.
func NewQueuePMwCAS(threads int) *QueuePMwCAS {
	return newQueuePMwCAS(&Options{partitions: threads})
}

func newQueuePMwCAS(o *Options) *QueuePMwCAS {
	q := &QueuePMwCAS{
		nodes: newQueueArena(o),
		pool:  pmwcas.NewPool(o.descriptors, o.partitions),
	}
	q.gc = epoch.New(o.participants, q.nodes.Free)
	q.nodes.At(frontHandle).next.StoreRelaxed(backHandle)
	q.nodes.At(backHandle).next.StoreRelaxed(frontHandle)
	return q
}

// Push appends x at the back.
func (q *QueuePMwCAS) Push(x Word) {
	g := q.gc.Enter()
	defer g.Exit()
	e := q.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	back := &q.nodes.At(backHandle).next
	h, _ := allocQNode(q.nodes, x, backHandle)
	for {
		last := e.ReadProtected(back)
		d := e.AllocateDescriptor()
		d.AddEntry(back, last, h)
		d.AddEntry(&q.nodes.At(last).next, backHandle, h)
		if d.MwCAS() {
			return
		}
	}
}

// Pop removes and returns the front element.
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *QueuePMwCAS) Pop() (Word, error) {
	g := q.gc.Enter()
	defer g.Exit()
	e := q.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	front := &q.nodes.At(frontHandle).next
	back := &q.nodes.At(backHandle).next
	for {
		first := e.ReadProtected(front)
		if first == backHandle {
			return 0, ErrWouldBlock
		}
		next := e.ReadProtected(&q.nodes.At(first).next)
		elem := q.nodes.At(first).elem
		d := e.AllocateDescriptor()
		d.AddEntry(front, first, next)
		if next == backHandle {
			d.AddEntry(back, first, frontHandle)
		}
		if d.MwCAS() {
			g.Retire(first)
			return elem, nil
		}
	}
}

// Front returns the front element, or 0 if the queue is empty.
func (q *QueuePMwCAS) Front() Word {
	g := q.gc.Enter()
	defer g.Exit()
	e := q.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	first := e.ReadProtected(&q.nodes.At(frontHandle).next)
	if first == backHandle {
		return 0
	}
	return q.nodes.At(first).elem
}

// Back returns the back element, or 0 if the queue is empty.
func (q *QueuePMwCAS) Back() Word {
	g := q.gc.Enter()
	defer g.Exit()
	e := q.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	last := e.ReadProtected(&q.nodes.At(backHandle).next)
	if last == frontHandle {
		return 0
	}
	return q.nodes.At(last).elem
}

// Empty reports whether the queue holds no element.
func (q *QueuePMwCAS) Empty() bool {
	e := q.pool.Epoch()
	e.Protect()
	defer e.Unprotect()

	return e.ReadProtected(&q.nodes.At(frontHandle).next) == backHandle
}

// IsValid reports whether the chain from front reaches back exactly once
// and back.next names the last node.
func (q *QueuePMwCAS) IsValid() bool {
	limit := q.nodes.Len()
	prev := frontHandle
	cur := q.nodes.At(frontHandle).next.LoadAcquire()
	for steps := uint64(0); steps <= limit; steps++ {
		switch cur {
		case nilHandle, frontHandle:
			return false
		case backHandle:
			return q.nodes.At(backHandle).next.LoadAcquire() == prev
		}
		prev, cur = cur, q.nodes.At(cur).next.LoadAcquire()
	}
	return false
}
