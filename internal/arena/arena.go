// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package arena provides a growable node arena addressed by uint64 handles.
//
// Link fields hold handles instead of pointers, so a link fits in one
// machine word and can carry the flag bits that multi-word CAS engines
// need. Handle 0 is the nil handle. Node memory is never returned to the
// runtime; a freed handle is only recycled through Alloc.
package arena

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"code.hybscloud.com/lfdeque/internal/ring"
)

const (
	chunkShift = 12
	chunkSize  = 1 << chunkShift
	chunkMask  = chunkSize - 1
	maxChunks  = 1 << 14
)

// Nil is the handle that refers to no node.
const Nil uint64 = 0

// DefaultFreeList is the free ring capacity used when New is given 0.
const DefaultFreeList = 1 << 16

// Arena hands out nodes of type N by handle.
type Arena[N any] struct {
	_       pad
	next    atomix.Uint64 // next never-used handle
	_       pad
	dropped atomix.Uint64
	_       pad
	free    *ring.Ring
	chunks  []atomic.Pointer[[chunkSize]N]
}

// New creates an arena whose first reserved handles (including Nil) are
// pre-allocated and never handed out by Alloc. Sentinels live there.
func New[N any](reserved int, freeList int) *Arena[N] {
	if reserved < 1 {
		panic("arena: reserved must include the nil handle")
	}
	if freeList <= 0 {
		freeList = DefaultFreeList
	}
	a := &Arena[N]{
		free:   ring.New(freeList),
		chunks: make([]atomic.Pointer[[chunkSize]N], maxChunks),
	}
	a.next.StoreRelaxed(uint64(reserved))
	a.grow(0)
	for h := uint64(chunkSize); h < uint64(reserved); h += chunkSize {
		a.grow(h >> chunkShift)
	}
	return a
}

// Alloc returns a handle whose node is owned by the caller until it is
// published. A recycled node keeps whatever its previous user wrote, so the
// caller must initialize every field.
func (a *Arena[N]) Alloc() uint64 {
	if h, err := a.free.Dequeue(); err == nil {
		return h
	}
	h := a.next.AddAcqRel(1) - 1
	c := h >> chunkShift
	if c >= maxChunks {
		panic("arena: handle space exhausted")
	}
	if a.chunks[c].Load() == nil {
		a.grow(c)
	}
	return h
}

// Free makes h available to a later Alloc. The caller guarantees no other
// goroutine can still dereference h.
func (a *Arena[N]) Free(h uint64) {
	if err := a.free.Enqueue(h); iox.IsWouldBlock(err) {
		a.dropped.AddAcqRel(1)
	}
}

// At returns the node behind h.
func (a *Arena[N]) At(h uint64) *N {
	return &a.chunks[h>>chunkShift].Load()[h&chunkMask]
}

// Len returns the number of handles issued so far, reserved ones included.
// It bounds the length of any acyclic chain in the arena.
func (a *Arena[N]) Len() uint64 {
	return a.next.LoadAcquire()
}

// Dropped returns how many freed handles did not fit in the free ring.
func (a *Arena[N]) Dropped() uint64 {
	return a.dropped.LoadAcquire()
}

func (a *Arena[N]) grow(c uint64) {
	a.chunks[c].CompareAndSwap(nil, new([chunkSize]N))
}

type pad [64]byte
