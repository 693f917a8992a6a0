// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"code.hybscloud.com/spin"

	"code.hybscloud.com/lfdeque/epoch"
	"code.hybscloud.com/lfdeque/internal/arena"
)

// DequeCAS is a single-word CAS deque threaded through prev links.
//
// back.prev names the back-most node, each node's prev names its neighbour
// toward the front, and the front-most node's prev is the front sentinel.
// front.prev names the front-most node. The empty deque has
// back.prev == front and front.prev == back.
//
// A node whose prev is nil has been detached by a pop in progress.
//
// # Partial backend
//
// Only PushFront and PopBack are implemented. With next links absent,
// PushBack and PopFront would need a second protocol that nothing here
// defines; they are left out on purpose and reported through [Partial]:
// PushBack is a no-op and PopFront returns ErrUnsupported.
type DequeCAS struct {
	nodes *arena.Arena[dnode]
	gc    *epoch.Reclaimer
}

// NewDequeCAS creates a CAS-based deque.
func NewDequeCAS() *DequeCAS {
	return newDequeCAS(&Options{})
}

func newDequeCAS(o *Options) *DequeCAS {
	d := &DequeCAS{nodes: newDequeArena(o)}
	d.gc = epoch.New(o.participants, d.nodes.Free)
	d.nodes.At(frontHandle).prev.StoreRelaxed(backHandle)
	d.nodes.At(backHandle).prev.StoreRelaxed(frontHandle)
	return d
}

// Supports reports whether op is implemented.
func (d *DequeCAS) Supports(op Op) bool {
	return op != OpPushBack && op != OpPopFront
}

// PushFront inserts x at the front end.
func (d *DequeCAS) PushFront(x Word) {
	g := d.gc.Enter()
	defer g.Exit()

	front := &d.nodes.At(frontHandle).prev
	h, _ := allocDNode(d.nodes, x, frontHandle, nilHandle)
	sw := spin.Wait{}

	// Link the new node behind the current front-most node.
	anchor := front.LoadAcquire()
	for {
		link := &d.nodes.At(anchor).prev
		if link.CompareAndSwapAcqRel(frontHandle, h) {
			break
		}
		switch p := link.LoadAcquire(); p {
		case frontHandle:
			// Lost a race that was undone; retry the same anchor.
		case nilHandle:
			// The anchor was popped; start over from the sentinel.
			anchor = front.LoadAcquire()
		default:
			// Another push linked p first; p is the new anchor.
			anchor = p
		}
		sw.Once()
	}

	// Only the pusher of the anchor's successor moves front.prev past the
	// anchor, so this succeeds once the anchor's own push has published.
	for !front.CompareAndSwapAcqRel(anchor, h) {
		sw.Once()
	}
}

// PushBack is not implemented by this backend and does nothing.
func (d *DequeCAS) PushBack(Word) {}

// PopFront is not implemented by this backend.
// It always returns (0, ErrUnsupported).
func (d *DequeCAS) PopFront() (Word, error) {
	return 0, ErrUnsupported
}

// PopBack removes and returns the back element.
// Returns (0, ErrWouldBlock) if the deque is empty.
func (d *DequeCAS) PopBack() (Word, error) {
	g := d.gc.Enter()
	defer g.Exit()

	front := &d.nodes.At(frontHandle).prev
	back := &d.nodes.At(backHandle).prev
	sw := spin.Wait{}
	old := back.LoadAcquire()
	for {
		if old == frontHandle {
			return 0, ErrWouldBlock
		}
		n := d.nodes.At(old)
		p := n.prev.LoadAcquire()
		switch p {
		case nilHandle:
			// A concurrent pop detached old.
		case frontHandle:
			// old is the only element. Detach it first so that a push
			// racing on old.prev fails, then point the sentinels at
			// each other.
			if !n.prev.CompareAndSwapAcqRel(frontHandle, nilHandle) {
				break
			}
			elem := n.elem
			for !back.CompareAndSwapAcqRel(old, frontHandle) {
				sw.Once()
			}
			for !front.CompareAndSwapAcqRel(old, backHandle) {
				// old's pusher has linked it but not yet published it
				// in front.prev.
				sw.Once()
			}
			g.Retire(old)
			return elem, nil
		default:
			elem := n.elem
			if back.CompareAndSwapAcqRel(old, p) {
				// The push of p may not have moved front.prev off old yet.
				for front.LoadAcquire() == old {
					sw.Once()
				}
				g.Retire(old)
				return elem, nil
			}
		}
		sw.Once()
		old = back.LoadAcquire()
	}
}

// Front returns the front element. It is unspecified when the deque is
// empty.
func (d *DequeCAS) Front() Word {
	g := d.gc.Enter()
	defer g.Exit()

	return d.nodes.At(d.nodes.At(frontHandle).prev.LoadAcquire()).elem
}

// Back returns the back element. It is unspecified when the deque is empty.
func (d *DequeCAS) Back() Word {
	g := d.gc.Enter()
	defer g.Exit()

	return d.nodes.At(d.nodes.At(backHandle).prev.LoadAcquire()).elem
}

// Empty reports whether the deque holds no element.
func (d *DequeCAS) Empty() bool {
	return d.nodes.At(backHandle).prev.LoadAcquire() == frontHandle
}

// IsValid walks prev links from back and reports whether the walk reaches
// front exactly once and front.prev names the front-most node.
func (d *DequeCAS) IsValid() bool {
	limit := d.nodes.Len()
	last := backHandle
	cur := d.nodes.At(backHandle).prev.LoadAcquire()
	for steps := uint64(0); steps <= limit; steps++ {
		switch cur {
		case nilHandle, backHandle:
			return false
		case frontHandle:
			return d.nodes.At(frontHandle).prev.LoadAcquire() == last
		}
		last, cur = cur, d.nodes.At(cur).prev.LoadAcquire()
	}
	return false
}
