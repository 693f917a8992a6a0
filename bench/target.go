// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/lfdeque"
	"code.hybscloud.com/lfdeque/mwcas"
	"code.hybscloud.com/lfdeque/pmwcas"
)

// op is one pre-generated operation. For container workloads idx[0] is the
// instance; for the fields workload idx[:n] are sorted distinct fields.
type op struct {
	kind lfdeque.Op
	n    uint8
	idx  [mwcas.MaxTargets]uint32
}

// target is the shared state all workers of one run operate on.
type target interface {
	// generate fills ops for one worker.
	generate(ops []op, r *rand.Rand, z *Zipf)
	// exec runs one operation; v is a value to push.
	exec(o *op, v lfdeque.Word)
	// verify checks the target after every worker has finished ops
	// operations in total.
	verify(ops int) error
}

func newTarget(c *Config) target {
	switch c.Workload {
	case WorkloadFields:
		return newFieldsTarget(c)
	case WorkloadDeque:
		return newDequeTarget(c)
	default:
		return newQueueTarget(c)
	}
}

// pickKind maps a roll in [0, 100) onto the mix.
func pickKind(m Mix, roll int) lfdeque.Op {
	switch {
	case roll < m.Front:
		return lfdeque.OpFront
	case roll < m.Front+m.Back:
		return lfdeque.OpBack
	case roll < m.Front+m.Back+m.Push:
		return lfdeque.OpPushBack
	default:
		return lfdeque.OpPopFront
	}
}

// =============================================================================
// Queues
// =============================================================================

type queueTarget struct {
	mix Mix
	qs  []lfdeque.Queue
}

func newQueueTarget(c *Config) *queueTarget {
	t := &queueTarget{mix: c.Mix, qs: make([]lfdeque.Queue, c.Instances)}
	for i := range t.qs {
		q := lfdeque.New().Backend(c.Backend).Partitions(c.Threads).BuildQueue()
		for j := range c.Prefill {
			q.Push(lfdeque.Word(j))
		}
		t.qs[i] = q
	}
	return t
}

func (t *queueTarget) generate(ops []op, r *rand.Rand, z *Zipf) {
	for i := range ops {
		ops[i].kind = pickKind(t.mix, r.IntN(100))
		ops[i].idx[0] = uint32(z.Sample(r))
	}
}

func (t *queueTarget) exec(o *op, v lfdeque.Word) {
	q := t.qs[o.idx[0]]
	switch o.kind {
	case lfdeque.OpFront:
		q.Front()
	case lfdeque.OpBack:
		q.Back()
	case lfdeque.OpPushBack:
		q.Push(v)
	default:
		q.Pop()
	}
}

func (t *queueTarget) verify(int) error {
	for i, q := range t.qs {
		if v, ok := q.(lfdeque.Validator); ok && !v.IsValid() {
			return fmt.Errorf("queue %d: broken chain", i)
		}
	}
	return nil
}

// =============================================================================
// Deques
// =============================================================================

type dequeTarget struct {
	mix Mix
	ds  []lfdeque.Deque
}

func newDequeTarget(c *Config) *dequeTarget {
	t := &dequeTarget{mix: c.Mix, ds: make([]lfdeque.Deque, c.Instances)}
	for i := range t.ds {
		d := lfdeque.New().Backend(c.Backend).Partitions(c.Threads).BuildDeque()
		for j := range c.Prefill {
			d.PushFront(lfdeque.Word(j))
		}
		t.ds[i] = d
	}
	return t
}

func (t *dequeTarget) generate(ops []op, r *rand.Rand, z *Zipf) {
	for i := range ops {
		k := pickKind(t.mix, r.IntN(100))
		inst := z.Sample(r)
		d := t.ds[inst]
		switch k {
		case lfdeque.OpPushBack:
			if r.IntN(2) == 0 {
				k = lfdeque.OpPushFront
			}
		case lfdeque.OpPopFront:
			if r.IntN(2) == 0 {
				k = lfdeque.OpPopBack
			}
		}
		// Partial backends get the end they implement.
		if !lfdeque.Supports(d, k) {
			switch k {
			case lfdeque.OpPushBack:
				k = lfdeque.OpPushFront
			case lfdeque.OpPopFront:
				k = lfdeque.OpPopBack
			}
		}
		ops[i].kind = k
		ops[i].idx[0] = uint32(inst)
	}
}

func (t *dequeTarget) exec(o *op, v lfdeque.Word) {
	d := t.ds[o.idx[0]]
	switch o.kind {
	case lfdeque.OpFront:
		d.Front()
	case lfdeque.OpBack:
		d.Back()
	case lfdeque.OpPushFront:
		d.PushFront(v)
	case lfdeque.OpPushBack:
		d.PushBack(v)
	case lfdeque.OpPopFront:
		d.PopFront()
	default:
		d.PopBack()
	}
}

func (t *dequeTarget) verify(int) error {
	for i, d := range t.ds {
		if v, ok := d.(lfdeque.Validator); ok && !v.IsValid() {
			return fmt.Errorf("deque %d: broken chain", i)
		}
	}
	return nil
}

// =============================================================================
// Fields
// =============================================================================

type fieldsTarget struct {
	fields  []atomix.Uint64
	targets int
	update  func(o *op)
}

func newFieldsTarget(c *Config) *fieldsTarget {
	t := &fieldsTarget{
		fields:  make([]atomix.Uint64, c.Fields),
		targets: c.Targets,
	}
	switch c.Backend {
	case lfdeque.Mutex:
		var mu sync.Mutex
		t.update = func(o *op) {
			mu.Lock()
			for _, i := range o.idx[:o.n] {
				f := &t.fields[i]
				f.StoreRelaxed(f.LoadRelaxed() + 1)
			}
			mu.Unlock()
		}
	case lfdeque.MwCAS:
		t.update = func(o *op) {
			sw := spin.Wait{}
			for {
				var d mwcas.Descriptor
				for _, i := range o.idx[:o.n] {
					f := &t.fields[i]
					v := mwcas.Read(f)
					d.Add(f, v, v+1)
				}
				if d.Commit() {
					return
				}
				sw.Once()
			}
		}
	case lfdeque.PMwCAS:
		pool := pmwcas.NewPool(0, c.Threads)
		t.update = func(o *op) {
			e := pool.Epoch()
			for {
				e.Protect()
				d := e.AllocateDescriptor()
				for _, i := range o.idx[:o.n] {
					f := &t.fields[i]
					v := e.ReadProtected(f)
					d.AddEntry(f, v, v+1)
				}
				ok := d.MwCAS()
				e.Unprotect()
				if ok {
					return
				}
			}
		}
	default:
		// One CAS per word: each word is atomic, the set of them is not.
		t.update = func(o *op) {
			for _, i := range o.idx[:o.n] {
				f := &t.fields[i]
				sw := spin.Wait{}
				for {
					v := f.LoadAcquire()
					if f.CompareAndSwapAcqRel(v, v+1) {
						break
					}
					sw.Once()
				}
			}
		}
	}
	return t
}

func (t *fieldsTarget) generate(ops []op, r *rand.Rand, z *Zipf) {
	for i := range ops {
		o := &ops[i]
		o.n = uint8(t.targets)
		for j := range t.targets {
			for {
				k := uint32(z.Sample(r))
				if !slices.Contains(o.idx[:j], k) {
					o.idx[j] = k
					break
				}
			}
		}
		slices.Sort(o.idx[:o.n])
	}
}

func (t *fieldsTarget) exec(o *op, _ lfdeque.Word) {
	t.update(o)
}

func (t *fieldsTarget) verify(ops int) error {
	var sum uint64
	for i := range t.fields {
		sum += t.fields[i].LoadAcquire()
	}
	want := uint64(ops) * uint64(t.targets)
	if sum != want {
		return fmt.Errorf("fields: sum %d, want %d", sum, want)
	}
	return nil
}
