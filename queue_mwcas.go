// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/lfdeque/epoch"
	"code.hybscloud.com/lfdeque/internal/arena"
	"code.hybscloud.com/lfdeque/mwcas"
)

// QueueMwCAS is a dummy-node linked queue whose push moves the tail
// pointer and the last node's link in one multi-word CAS, so tail never
// lags. Pop swings head with a single-target commit and retires the old
// dummy.
type QueueMwCAS struct {
	_     pad
	head  atomix.Uint64
	_     pad
	tail  atomix.Uint64
	_     pad
	nodes *arena.Arena[qnode]
	gc    *epoch.Reclaimer
}

// NewQueueMwCAS creates an mwcas-based queue.
func NewQueueMwCAS() *QueueMwCAS {
	return newQueueMwCAS(&Options{})
}

func newQueueMwCAS(o *Options) *QueueMwCAS {
	q := &QueueMwCAS{nodes: newQueueArena(o)}
	q.gc = epoch.New(o.participants, q.nodes.Free)
	dummy, _ := allocQNode(q.nodes, 0, nilHandle)
	q.head.StoreRelaxed(dummy)
	q.tail.StoreRelaxed(dummy)
	return q
}

// Push appends x at the back.
func (q *QueueMwCAS) Push(x Word) {
	g := q.gc.Enter()
	defer g.Exit()

	h, _ := allocQNode(q.nodes, x, nilHandle)
	sw := spin.Wait{}
	for {
		tail := mwcas.Read(&q.tail)
		var d mwcas.Descriptor
		d.Add(&q.tail, tail, h)
		d.Add(&q.nodes.At(tail).next, nilHandle, h)
		if d.Commit() {
			return
		}
		sw.Once()
	}
}

// Pop removes and returns the front element.
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *QueueMwCAS) Pop() (Word, error) {
	g := q.gc.Enter()
	defer g.Exit()

	sw := spin.Wait{}
	for {
		head := mwcas.Read(&q.head)
		next := mwcas.Read(&q.nodes.At(head).next)
		if next == nilHandle {
			return 0, ErrWouldBlock
		}
		elem := q.nodes.At(next).elem
		var d mwcas.Descriptor
		d.Add(&q.head, head, next)
		if d.Commit() {
			g.Retire(head)
			return elem, nil
		}
		sw.Once()
	}
}

// Front returns the front element, or 0 if the queue is empty.
func (q *QueueMwCAS) Front() Word {
	g := q.gc.Enter()
	defer g.Exit()

	next := mwcas.Read(&q.nodes.At(mwcas.Read(&q.head)).next)
	if next == nilHandle {
		return 0
	}
	return q.nodes.At(next).elem
}

// Back returns the back element. It is unspecified when the queue is empty.
func (q *QueueMwCAS) Back() Word {
	g := q.gc.Enter()
	defer g.Exit()

	return q.nodes.At(mwcas.Read(&q.tail)).elem
}

// Empty reports whether the queue holds no element.
func (q *QueueMwCAS) Empty() bool {
	g := q.gc.Enter()
	defer g.Exit()

	return mwcas.Read(&q.nodes.At(mwcas.Read(&q.head)).next) == nilHandle
}

// IsValid reports whether the chain from head ends at tail.
func (q *QueueMwCAS) IsValid() bool {
	return validQueueChain(q.nodes, q.head.LoadAcquire(), q.tail.LoadAcquire())
}
