// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package epoch provides epoch-based deferred reclamation of arena handles.
//
// A goroutine brackets every access to shared nodes with a Guard:
//
//	g := r.Enter()
//	defer g.Exit()
//	// ... read links, unlink a node ...
//	g.Retire(h)
//
// A retired handle is passed to the free function only after every guard
// that was active when it was retired has exited.
//
// # Epochs
//
// The reclaimer keeps a global epoch and a fixed table of participant
// slots. Enter claims a free slot and announces the current epoch in it.
// The global epoch moves from e to e+1 only when every claimed slot has
// announced e, so a handle retired at epoch e is unreachable from any guard
// once the global epoch reaches e+2.
//
// Retired handles are kept in three bags per slot, indexed by epoch mod 3.
// Bags travel with the slot, not with the goroutine; a slot that nobody
// claims again is drained by Collect or Flush.
package epoch

import (
	"runtime"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Interval is the number of retires in one slot between attempts to
// advance the global epoch.
const Interval = 128

const (
	inactive uint64 = 0
	bagCount        = 3
)

// Reclaimer issues guards and defers freeing of retired handles.
type Reclaimer struct {
	_      pad
	global atomix.Uint64
	_      pad
	cursor atomix.Uint64
	_      pad
	slots  []slot
	free   func(uint64)
}

type slot struct {
	_       pad
	state   atomix.Uint64 // inactive, or epoch<<1|1 while claimed
	retired int
	bags    [bagCount]bag
	_       pad
}

type bag struct {
	epoch   uint64
	handles []uint64
}

// New creates a reclaimer with n participant slots that passes every safe
// handle to free. n <= 0 selects 4×GOMAXPROCS with a floor of 32.
//
// At most n guards can be active at once; further Enter calls spin until a
// slot is released.
func New(n int, free func(uint64)) *Reclaimer {
	if free == nil {
		panic("epoch: nil free function")
	}
	if n <= 0 {
		n = max(4*runtime.GOMAXPROCS(0), 32)
	}
	return &Reclaimer{
		slots: make([]slot, n),
		free:  free,
	}
}

// Guard is a scoped participation token. It must not outlive the
// operation that created it.
type Guard struct {
	r *Reclaimer
	s *slot
}

// Enter claims a participant slot and announces the current epoch.
func (r *Reclaimer) Enter() Guard {
	n := uint64(len(r.slots))
	i := r.cursor.AddAcqRel(1)
	sw := spin.Wait{}
	for {
		s := &r.slots[i%n]
		e := r.global.LoadAcquire()
		if s.state.LoadRelaxed() == inactive && s.state.CompareAndSwapAcqRel(inactive, announce(e)) {
			// The epoch may have moved between the load and the claim.
			for {
				cur := r.global.LoadAcquire()
				if cur == e {
					break
				}
				e = cur
				s.state.StoreRelease(announce(e))
			}
			s.collect(e, r.free)
			return Guard{r: r, s: s}
		}
		i++
		if i%n == 0 {
			sw.Once()
		}
	}
}

// Exit releases the participant slot.
func (g Guard) Exit() {
	g.s.collect(g.r.global.LoadAcquire(), g.r.free)
	g.s.state.StoreRelease(inactive)
}

// Refresh re-announces the current global epoch, letting the epoch advance
// past a long-lived guard. The caller must not hold any handle it read
// under g before the call.
func (g Guard) Refresh() {
	e := g.r.global.LoadAcquire()
	for {
		g.s.state.StoreRelease(announce(e))
		cur := g.r.global.LoadAcquire()
		if cur == e {
			break
		}
		e = cur
	}
	g.s.collect(e, g.r.free)
}

// Retire hands h over to the reclaimer. The caller must already have made
// h unreachable for any guard that enters from now on, and must not touch
// h again.
func (g Guard) Retire(h uint64) {
	e := g.r.global.LoadAcquire()
	s := g.s
	b := &s.bags[e%bagCount]
	if b.epoch != e {
		// Same residue, older epoch: at least three epochs behind.
		b.release(g.r.free)
		b.epoch = e
	}
	b.handles = append(b.handles, h)

	s.retired++
	if s.retired >= Interval {
		s.retired = 0
		if g.r.advance() {
			s.collect(g.r.global.LoadAcquire(), g.r.free)
		}
	}
}

// Epoch returns the current global epoch.
func (r *Reclaimer) Epoch() uint64 {
	return r.global.LoadAcquire()
}

// Collect tries to advance the global epoch and frees the safe bags of
// every idle slot. It is safe to call concurrently with guards.
func (r *Reclaimer) Collect() {
	r.advance()
	for i := range r.slots {
		s := &r.slots[i]
		e := r.global.LoadAcquire()
		if s.state.LoadRelaxed() != inactive || !s.state.CompareAndSwapAcqRel(inactive, announce(e)) {
			continue
		}
		s.collect(r.global.LoadAcquire(), r.free)
		s.state.StoreRelease(inactive)
	}
}

// Flush frees every retired handle. It must only be called while no guard
// is active.
func (r *Reclaimer) Flush() {
	for i := range r.slots {
		s := &r.slots[i]
		if s.state.LoadAcquire() != inactive {
			panic("epoch: Flush with an active guard")
		}
		for j := range s.bags {
			s.bags[j].release(r.free)
		}
		s.retired = 0
	}
}

// Pending returns the number of retired handles not yet freed. It must only
// be called while no guard is active.
func (r *Reclaimer) Pending() int {
	n := 0
	for i := range r.slots {
		for j := range r.slots[i].bags {
			n += len(r.slots[i].bags[j].handles)
		}
	}
	return n
}

// advance moves the global epoch forward by one if every active slot has
// announced the current epoch.
func (r *Reclaimer) advance() bool {
	e := r.global.LoadAcquire()
	want := announce(e)
	for i := range r.slots {
		st := r.slots[i].state.LoadAcquire()
		if st != inactive && st != want {
			return false
		}
	}
	return r.global.CompareAndSwapAcqRel(e, e+1)
}

// collect frees the bags that no guard can still observe at global epoch e.
func (s *slot) collect(e uint64, free func(uint64)) {
	for i := range s.bags {
		b := &s.bags[i]
		if len(b.handles) > 0 && b.epoch+2 <= e {
			b.release(free)
		}
	}
}

func (b *bag) release(free func(uint64)) {
	for _, h := range b.handles {
		free(h)
	}
	b.handles = b.handles[:0]
}

func announce(e uint64) uint64 {
	return e<<1 | 1
}

type pad [64]byte
