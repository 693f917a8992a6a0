// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"sync"

	"code.hybscloud.com/lfdeque/internal/arena"
)

// DequeMutex is a doubly linked deque with one reader/writer lock per end.
//
// front.next is the front-most node and back.prev the back-most. An
// operation takes only its own end's lock while the nodes it touches stay
// out of reach of the other end. Pushing into an empty deque and popping
// from a deque of one or two elements take both locks, front first.
// Unlinked nodes are freed at once.
//
// Link words are accessed atomically: a fast-path operation at one end may
// read a link that the other end is writing while deciding whether it has
// to take both locks.
type DequeMutex struct {
	frontMu sync.RWMutex
	_       pad
	backMu  sync.RWMutex
	_       pad
	nodes   *arena.Arena[dnode]
}

// NewDequeMutex creates a lock-based deque.
func NewDequeMutex() *DequeMutex {
	return newDequeMutex(&Options{})
}

func newDequeMutex(o *Options) *DequeMutex {
	d := &DequeMutex{nodes: newDequeArena(o)}
	d.nodes.At(frontHandle).next.StoreRelaxed(backHandle)
	d.nodes.At(backHandle).prev.StoreRelaxed(frontHandle)
	return d
}

// PushFront inserts x at the front end.
func (d *DequeMutex) PushFront(x Word) {
	h, _ := allocDNode(d.nodes, x, frontHandle, nilHandle)

	d.frontMu.Lock()
	if d.next(frontHandle) != backHandle {
		d.linkFront(h)
		d.frontMu.Unlock()
		return
	}
	d.frontMu.Unlock()

	d.lockBoth()
	d.linkFront(h)
	d.unlockBoth()
}

// PushBack inserts x at the back end.
func (d *DequeMutex) PushBack(x Word) {
	h, _ := allocDNode(d.nodes, x, nilHandle, backHandle)

	d.backMu.Lock()
	if d.prev(backHandle) != frontHandle {
		d.linkBack(h)
		d.backMu.Unlock()
		return
	}
	d.backMu.Unlock()

	d.lockBoth()
	d.linkBack(h)
	d.unlockBoth()
}

// PopFront removes and returns the front element.
// Returns (0, ErrWouldBlock) if the deque is empty.
func (d *DequeMutex) PopFront() (Word, error) {
	d.frontMu.Lock()
	first := d.next(frontHandle)
	if first == backHandle {
		// Filling an empty deque needs the front lock too.
		d.frontMu.Unlock()
		return 0, ErrWouldBlock
	}
	if second := d.next(first); second != backHandle && d.next(second) != backHandle {
		elem, h := d.unlinkFront()
		d.frontMu.Unlock()
		d.nodes.Free(h)
		return elem, nil
	}
	d.frontMu.Unlock()

	d.lockBoth()
	elem, h := d.unlinkFront()
	d.unlockBoth()
	if h == nilHandle {
		return 0, ErrWouldBlock
	}
	d.nodes.Free(h)
	return elem, nil
}

// PopBack removes and returns the back element.
// Returns (0, ErrWouldBlock) if the deque is empty.
func (d *DequeMutex) PopBack() (Word, error) {
	d.backMu.Lock()
	last := d.prev(backHandle)
	if last == frontHandle {
		d.backMu.Unlock()
		return 0, ErrWouldBlock
	}
	if second := d.prev(last); second != frontHandle && d.prev(second) != frontHandle {
		elem, h := d.unlinkBack()
		d.backMu.Unlock()
		d.nodes.Free(h)
		return elem, nil
	}
	d.backMu.Unlock()

	d.lockBoth()
	elem, h := d.unlinkBack()
	d.unlockBoth()
	if h == nilHandle {
		return 0, ErrWouldBlock
	}
	d.nodes.Free(h)
	return elem, nil
}

// Front returns the front element. It is unspecified when the deque is
// empty.
func (d *DequeMutex) Front() Word {
	d.frontMu.RLock()
	defer d.frontMu.RUnlock()

	return d.nodes.At(d.next(frontHandle)).elem
}

// Back returns the back element. It is unspecified when the deque is empty.
func (d *DequeMutex) Back() Word {
	d.backMu.RLock()
	defer d.backMu.RUnlock()

	return d.nodes.At(d.prev(backHandle)).elem
}

// Empty reports whether the deque holds no element.
func (d *DequeMutex) Empty() bool {
	d.frontMu.RLock()
	defer d.frontMu.RUnlock()

	return d.next(frontHandle) == backHandle
}

// IsValid reports whether next and prev links agree from front to back.
func (d *DequeMutex) IsValid() bool {
	d.lockBoth()
	defer d.unlockBoth()

	return validDequeChain(d.nodes)
}

func (d *DequeMutex) lockBoth() {
	d.frontMu.Lock()
	d.backMu.Lock()
}

func (d *DequeMutex) unlockBoth() {
	d.backMu.Unlock()
	d.frontMu.Unlock()
}

func (d *DequeMutex) next(h uint64) uint64 {
	return d.nodes.At(h).next.LoadAcquire()
}

func (d *DequeMutex) prev(h uint64) uint64 {
	return d.nodes.At(h).prev.LoadAcquire()
}

func (d *DequeMutex) linkFront(h uint64) {
	first := d.next(frontHandle)
	d.nodes.At(h).next.StoreRelaxed(first)
	d.nodes.At(first).prev.StoreRelease(h)
	d.nodes.At(frontHandle).next.StoreRelease(h)
}

func (d *DequeMutex) linkBack(h uint64) {
	last := d.prev(backHandle)
	d.nodes.At(h).prev.StoreRelaxed(last)
	d.nodes.At(last).next.StoreRelease(h)
	d.nodes.At(backHandle).prev.StoreRelease(h)
}

// unlinkFront detaches the front-most node and returns its element and
// handle, or a nil handle if the deque is empty.
func (d *DequeMutex) unlinkFront() (Word, uint64) {
	first := d.next(frontHandle)
	if first == backHandle {
		return 0, nilHandle
	}
	second := d.next(first)
	d.nodes.At(frontHandle).next.StoreRelease(second)
	d.nodes.At(second).prev.StoreRelease(frontHandle)
	return d.nodes.At(first).elem, first
}

// unlinkBack detaches the back-most node.
func (d *DequeMutex) unlinkBack() (Word, uint64) {
	last := d.prev(backHandle)
	if last == frontHandle {
		return 0, nilHandle
	}
	second := d.prev(last)
	d.nodes.At(backHandle).prev.StoreRelease(second)
	d.nodes.At(second).next.StoreRelease(backHandle)
	return d.nodes.At(last).elem, last
}
