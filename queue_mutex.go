// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"sync"

	"code.hybscloud.com/lfdeque/internal/arena"
)

// QueueMutex is a dummy-node linked queue guarded by one reader/writer
// lock. Mutations hold the write lock and free unlinked nodes at once;
// Front, Back and Empty share the read lock.
type QueueMutex struct {
	mu    sync.RWMutex
	head  uint64
	tail  uint64
	nodes *arena.Arena[qnode]
}

// NewQueueMutex creates a lock-based queue.
func NewQueueMutex() *QueueMutex {
	return newQueueMutex(&Options{})
}

func newQueueMutex(o *Options) *QueueMutex {
	q := &QueueMutex{nodes: newQueueArena(o)}
	dummy, _ := allocQNode(q.nodes, 0, nilHandle)
	q.head, q.tail = dummy, dummy
	return q
}

// Push appends x at the back.
func (q *QueueMutex) Push(x Word) {
	h, _ := allocQNode(q.nodes, x, nilHandle)

	q.mu.Lock()
	q.nodes.At(q.tail).next.StoreRelaxed(h)
	q.tail = h
	q.mu.Unlock()
}

// Pop removes and returns the front element.
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *QueueMutex) Pop() (Word, error) {
	q.mu.Lock()
	old := q.head
	next := q.nodes.At(old).next.LoadRelaxed()
	if next == nilHandle {
		q.mu.Unlock()
		return 0, ErrWouldBlock
	}
	elem := q.nodes.At(next).elem
	q.head = next
	q.mu.Unlock()

	q.nodes.Free(old)
	return elem, nil
}

// Front returns the front element, or 0 if the queue is empty.
func (q *QueueMutex) Front() Word {
	q.mu.RLock()
	defer q.mu.RUnlock()

	next := q.nodes.At(q.head).next.LoadRelaxed()
	if next == nilHandle {
		return 0
	}
	return q.nodes.At(next).elem
}

// Back returns the back element. It is unspecified when the queue is empty.
func (q *QueueMutex) Back() Word {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.nodes.At(q.tail).elem
}

// Empty reports whether the queue holds no element.
func (q *QueueMutex) Empty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.nodes.At(q.head).next.LoadRelaxed() == nilHandle
}

// IsValid reports whether the chain from head ends at tail.
func (q *QueueMutex) IsValid() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return validQueueChain(q.nodes, q.head, q.tail)
}
