// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring provides a bounded multi-producer multi-consumer ring of
// uint64 values. It backs the free lists of the node arena and of the
// pmwcas descriptor pool.
package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// Ring is a CAS-based MPMC bounded ring of uint64 values.
//
// Each slot packs its sequence number and value into a single 128-bit
// entry, so a slot is published with one atomic operation and there is
// no plain data field for readers to race on.
//
// Entry format: [lo=sequence | hi=value]
type Ring struct {
	_        pad
	tail     atomix.Uint64 // Producer index
	_        pad
	head     atomix.Uint64 // Consumer index
	_        pad
	buffer   []slot
	mask     uint64
	capacity uint64
}

type slot struct {
	entry atomix.Uint128 // lo=seq, hi=value
	_     [64 - 16]byte
}

// New creates a ring. Capacity rounds up to the next power of 2.
func New(capacity int) *Ring {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	r := &Ring{
		buffer:   make([]slot, n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		r.buffer[i].entry.StoreRelaxed(i, 0)
	}
	return r
}

// Enqueue adds v to the ring.
// Returns iox.ErrWouldBlock if the ring is full.
func (r *Ring) Enqueue(v uint64) error {
	sw := spin.Wait{}
	for {
		tail := r.tail.LoadAcquire()
		s := &r.buffer[tail&r.mask]
		seq, val := s.entry.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if s.entry.CompareAndSwapAcqRel(seq, val, tail+1, v) {
				r.tail.CompareAndSwapRelaxed(tail, tail+1)
				return nil
			}
		} else if diff < 0 {
			return iox.ErrWouldBlock
		} else {
			// Another producer filled the slot but has not bumped tail yet.
			r.tail.CompareAndSwapRelaxed(tail, tail+1)
		}
		sw.Once()
	}
}

// Dequeue removes and returns a value.
// Returns (0, iox.ErrWouldBlock) if the ring is empty.
func (r *Ring) Dequeue() (uint64, error) {
	sw := spin.Wait{}
	for {
		head := r.head.LoadAcquire()
		s := &r.buffer[head&r.mask]
		seq, val := s.entry.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if s.entry.CompareAndSwapAcqRel(seq, val, head+r.capacity, 0) {
				r.head.CompareAndSwapRelaxed(head, head+1)
				return val, nil
			}
		} else if diff < 0 {
			return 0, iox.ErrWouldBlock
		} else {
			r.head.CompareAndSwapRelaxed(head, head+1)
		}
		sw.Once()
	}
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return int(r.capacity)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
