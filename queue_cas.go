// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/lfdeque/epoch"
	"code.hybscloud.com/lfdeque/internal/arena"
)

// QueueCAS is a Michael–Scott lock-free queue.
//
// head points at a dummy node whose successor is the front element; tail
// points at the last node or lags it by one while a push is in flight.
// Pop slides the dummy forward and retires the old one.
//
// Every operation runs under an epoch guard, so a node read by one
// goroutine is never recycled under it by another.
type QueueCAS struct {
	_     pad
	head  atomix.Uint64
	_     pad
	tail  atomix.Uint64
	_     pad
	nodes *arena.Arena[qnode]
	gc    *epoch.Reclaimer
}

// NewQueueCAS creates a CAS-based queue.
func NewQueueCAS() *QueueCAS {
	return newQueueCAS(&Options{})
}

func newQueueCAS(o *Options) *QueueCAS {
	q := &QueueCAS{nodes: newQueueArena(o)}
	q.gc = epoch.New(o.participants, q.nodes.Free)
	dummy, _ := allocQNode(q.nodes, 0, nilHandle)
	q.head.StoreRelaxed(dummy)
	q.tail.StoreRelaxed(dummy)
	return q
}

// Push appends x at the back.
func (q *QueueCAS) Push(x Word) {
	g := q.gc.Enter()
	defer g.Exit()

	h, _ := allocQNode(q.nodes, x, nilHandle)
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		t := q.nodes.At(tail)
		next := t.next.LoadAcquire()
		if next != nilHandle {
			// Another push linked its node but has not swung tail yet.
			q.tail.CompareAndSwapAcqRel(tail, next)
			sw.Once()
			continue
		}
		if t.next.CompareAndSwapAcqRel(nilHandle, h) {
			// May fail if a helper already advanced tail.
			q.tail.CompareAndSwapAcqRel(tail, h)
			return
		}
		sw.Once()
	}
}

// Pop removes and returns the front element.
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *QueueCAS) Pop() (Word, error) {
	g := q.gc.Enter()
	defer g.Exit()

	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		next := q.nodes.At(head).next.LoadAcquire()
		if next == nilHandle {
			return 0, ErrWouldBlock
		}
		if tail := q.tail.LoadAcquire(); tail == head {
			// head must not pass tail, or tail would point at a retired node.
			q.tail.CompareAndSwapAcqRel(tail, next)
			continue
		}
		elem := q.nodes.At(next).elem
		if q.head.CompareAndSwapAcqRel(head, next) {
			g.Retire(head)
			return elem, nil
		}
		sw.Once()
	}
}

// Front returns the front element, or 0 if the queue is empty.
func (q *QueueCAS) Front() Word {
	g := q.gc.Enter()
	defer g.Exit()

	next := q.nodes.At(q.head.LoadAcquire()).next.LoadAcquire()
	if next == nilHandle {
		return 0
	}
	return q.nodes.At(next).elem
}

// Back returns the back element. It is unspecified when the queue is empty.
func (q *QueueCAS) Back() Word {
	g := q.gc.Enter()
	defer g.Exit()

	for {
		tail := q.tail.LoadAcquire()
		next := q.nodes.At(tail).next.LoadAcquire()
		if next == nilHandle {
			return q.nodes.At(tail).elem
		}
		q.tail.CompareAndSwapAcqRel(tail, next)
	}
}

// Empty reports whether the queue holds no element.
func (q *QueueCAS) Empty() bool {
	g := q.gc.Enter()
	defer g.Exit()

	return q.nodes.At(q.head.LoadAcquire()).next.LoadAcquire() == nilHandle
}

// IsValid reports whether the chain from head ends at tail.
func (q *QueueCAS) IsValid() bool {
	return validQueueChain(q.nodes, q.head.LoadAcquire(), q.tail.LoadAcquire())
}
