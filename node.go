// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/lfdeque/internal/arena"
)

// Nodes live in a per-structure arena and link to each other by handle.
// The first handles are reserved: nil, then the front and back sentinels.
// Sentinels are never retired.
const (
	nilHandle   = arena.Nil
	frontHandle = uint64(1)
	backHandle  = uint64(2)
	reserved    = 3
)

// qnode is a queue node. elem is written once before the node is published.
type qnode struct {
	next atomix.Uint64
	elem Word
}

// dnode is a deque node.
type dnode struct {
	next atomix.Uint64
	prev atomix.Uint64
	elem Word
}

func newQueueArena(o *Options) *arena.Arena[qnode] {
	return arena.New[qnode](reserved, o.freeList)
}

func newDequeArena(o *Options) *arena.Arena[dnode] {
	return arena.New[dnode](reserved, o.freeList)
}

// allocQNode returns an unpublished queue node holding x.
func allocQNode(a *arena.Arena[qnode], x Word, next uint64) (uint64, *qnode) {
	h := a.Alloc()
	n := a.At(h)
	n.elem = x
	n.next.StoreRelaxed(next)
	return h, n
}

// allocDNode returns an unpublished deque node holding x.
func allocDNode(a *arena.Arena[dnode], x Word, prev, next uint64) (uint64, *dnode) {
	h := a.Alloc()
	n := a.At(h)
	n.elem = x
	n.prev.StoreRelaxed(prev)
	n.next.StoreRelaxed(next)
	return h, n
}

// validQueueChain walks next links from first and reports whether the
// walk ends at nil within the arena bound with last as its final node.
func validQueueChain(a *arena.Arena[qnode], first, last uint64) bool {
	limit := a.Len()
	cur := first
	for steps := uint64(0); steps <= limit; steps++ {
		next := a.At(cur).next.LoadAcquire()
		if next == nilHandle {
			return cur == last
		}
		cur = next
	}
	return false
}

// validDequeChain walks a doubly linked chain from the front sentinel and
// reports whether it reaches the back sentinel with consistent prev links.
func validDequeChain(a *arena.Arena[dnode]) bool {
	limit := a.Len()
	prev := frontHandle
	cur := a.At(frontHandle).next.LoadAcquire()
	for steps := uint64(0); steps <= limit; steps++ {
		if cur == nilHandle || cur == frontHandle {
			return false
		}
		if a.At(cur).prev.LoadAcquire() != prev {
			return false
		}
		if cur == backHandle {
			return true
		}
		prev, cur = cur, a.At(cur).next.LoadAcquire()
	}
	return false
}
