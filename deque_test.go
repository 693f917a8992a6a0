// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"code.hybscloud.com/lfdeque"
)

func forEachDeque(t *testing.T, fn func(t *testing.T, d lfdeque.Deque)) {
	t.Helper()
	for _, b := range lfdeque.Backends {
		t.Run(b.String(), func(t *testing.T) {
			fn(t, lfdeque.New().Backend(b).Partitions(8).BuildDeque())
		})
	}
}

// requireOps skips the test when d does not implement every op.
func requireOps(t *testing.T, d lfdeque.Deque, ops ...lfdeque.Op) {
	t.Helper()
	for _, op := range ops {
		if !lfdeque.Supports(d, op) {
			t.Skipf("%T does not implement %v", d, op)
		}
	}
}

// =============================================================================
// Deque - Basic Operations
// =============================================================================

func TestDequeNewIsEmpty(t *testing.T) {
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		for range 3 {
			if !d.Empty() {
				t.Fatal("new deque: Empty: got false, want true")
			}
		}
		checkValid(t, d)
	})
}

func TestDequePopEmpty(t *testing.T) {
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		if _, err := d.PopBack(); !errors.Is(err, lfdeque.ErrWouldBlock) {
			t.Fatalf("PopBack on empty: got %v, want ErrWouldBlock", err)
		}
		_, err := d.PopFront()
		if lfdeque.Supports(d, lfdeque.OpPopFront) {
			if !errors.Is(err, lfdeque.ErrWouldBlock) {
				t.Fatalf("PopFront on empty: got %v, want ErrWouldBlock", err)
			}
		} else if !errors.Is(err, lfdeque.ErrUnsupported) {
			t.Fatalf("PopFront: got %v, want ErrUnsupported", err)
		}
		checkValid(t, d)
	})
}

func TestDequePushFrontSingle(t *testing.T) {
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		d.PushFront(0)
		if d.Empty() {
			t.Fatal("after PushFront: Empty: got true, want false")
		}
		checkValid(t, d)
		if v, err := d.PopBack(); err != nil || v != 0 {
			t.Fatalf("PopBack: got (%d, %v), want (0, nil)", v, err)
		}
		if !d.Empty() {
			t.Fatal("after PopBack: Empty: got false, want true")
		}
		checkValid(t, d)
	})
}

// TestDequePushBackPopFront holds for partial backends too: an ignored
// push followed by an unsupported pop leaves the deque empty.
func TestDequePushBackPopFront(t *testing.T) {
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		d.PushBack(0)
		d.PopFront()
		if !d.Empty() {
			t.Fatal("Empty: got false, want true")
		}
		checkValid(t, d)
	})
}

func TestDequePushFrontPopBackFIFO(t *testing.T) {
	const n = 1000
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		for i := range lfdeque.Word(n) {
			d.PushFront(i)
		}
		checkValid(t, d)
		if got := d.Front(); got != n-1 {
			t.Fatalf("Front: got %d, want %d", got, n-1)
		}
		if got := d.Back(); got != 0 {
			t.Fatalf("Back: got %d, want 0", got)
		}
		for i := range lfdeque.Word(n) {
			v, err := d.PopBack()
			if err != nil {
				t.Fatalf("PopBack(%d): %v", i, err)
			}
			if v != i {
				t.Fatalf("PopBack(%d): got %d, want %d", i, v, i)
			}
		}
		if !d.Empty() {
			t.Fatal("after drain: Empty: got false, want true")
		}
		checkValid(t, d)
	})
}

func TestDequePushBackPopFrontFIFO(t *testing.T) {
	const n = 1000
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		requireOps(t, d, lfdeque.OpPushBack, lfdeque.OpPopFront)
		for i := range lfdeque.Word(n) {
			d.PushBack(i)
		}
		for i := range lfdeque.Word(n) {
			if v, err := d.PopFront(); err != nil || v != i {
				t.Fatalf("PopFront(%d): got (%d, %v), want (%d, nil)", i, v, err, i)
			}
		}
		checkValid(t, d)
	})
}

func TestDequeLIFO(t *testing.T) {
	const n = 500
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		requireOps(t, d, lfdeque.OpPushBack, lfdeque.OpPopFront)
		for i := range lfdeque.Word(n) {
			d.PushFront(i)
		}
		for i := range lfdeque.Word(n) {
			want := n - 1 - i
			if v, err := d.PopFront(); err != nil || v != want {
				t.Fatalf("PopFront(%d): got (%d, %v), want (%d, nil)", i, v, err, want)
			}
		}
		for i := range lfdeque.Word(n) {
			d.PushBack(i)
		}
		for i := range lfdeque.Word(n) {
			want := n - 1 - i
			if v, err := d.PopBack(); err != nil || v != want {
				t.Fatalf("PopBack(%d): got (%d, %v), want (%d, nil)", i, v, err, want)
			}
		}
		checkValid(t, d)
	})
}

func TestDequeFrontBack(t *testing.T) {
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		d.PushFront(1)
		if f, b := d.Front(), d.Back(); f != 1 || b != 1 {
			t.Fatalf("one element: Front, Back: got %d, %d, want 1, 1", f, b)
		}
		d.PushFront(2)
		if f, b := d.Front(), d.Back(); f != 2 || b != 1 {
			t.Fatalf("two elements: Front, Back: got %d, %d, want 2, 1", f, b)
		}
		if !lfdeque.Supports(d, lfdeque.OpPushBack) {
			return
		}
		d.PushBack(3)
		if f, b := d.Front(), d.Back(); f != 2 || b != 3 {
			t.Fatalf("three elements: Front, Back: got %d, %d, want 2, 3", f, b)
		}
	})
}

// TestDequeModel runs a random sequence of supported operations against a
// slice whose index 0 is the front.
func TestDequeModel(t *testing.T) {
	forEachDeque(t, func(t *testing.T, d lfdeque.Deque) {
		var ops []lfdeque.Op
		for op := lfdeque.OpFront; op <= lfdeque.OpPopBack; op++ {
			if lfdeque.Supports(d, op) {
				ops = append(ops, op)
			}
		}
		r := rand.New(rand.NewPCG(3, 4))
		var model []lfdeque.Word
		for i := range 20000 {
			op := ops[r.IntN(len(ops))]
			x := r.Uint64() >> 2
			switch op {
			case lfdeque.OpPushFront:
				d.PushFront(x)
				model = append([]lfdeque.Word{x}, model...)
			case lfdeque.OpPushBack:
				d.PushBack(x)
				model = append(model, x)
			case lfdeque.OpPopFront, lfdeque.OpPopBack:
				var v lfdeque.Word
				var err error
				if op == lfdeque.OpPopFront {
					v, err = d.PopFront()
				} else {
					v, err = d.PopBack()
				}
				if len(model) == 0 {
					if !lfdeque.IsWouldBlock(err) {
						t.Fatalf("op %d: %v on empty: got %v, want ErrWouldBlock", i, op, err)
					}
					continue
				}
				want := model[len(model)-1]
				if op == lfdeque.OpPopFront {
					want = model[0]
					model = model[1:]
				} else {
					model = model[:len(model)-1]
				}
				if err != nil || v != want {
					t.Fatalf("op %d: %v: got (%d, %v), want (%d, nil)", i, op, v, err, want)
				}
			default:
				if got, want := d.Empty(), len(model) == 0; got != want {
					t.Fatalf("op %d: Empty: got %v, want %v", i, got, want)
				}
				if len(model) == 0 {
					continue
				}
				if got := d.Front(); got != model[0] {
					t.Fatalf("op %d: Front: got %d, want %d", i, got, model[0])
				}
				if got := d.Back(); got != model[len(model)-1] {
					t.Fatalf("op %d: Back: got %d, want %d", i, got, model[len(model)-1])
				}
			}
		}
		checkValid(t, d)
	})
}

// =============================================================================
// Partial Backend
// =============================================================================

func TestDequeCASPartial(t *testing.T) {
	d := lfdeque.NewDequeCAS()
	for _, tt := range []struct {
		op   lfdeque.Op
		want bool
	}{
		{lfdeque.OpFront, true},
		{lfdeque.OpBack, true},
		{lfdeque.OpPushFront, true},
		{lfdeque.OpPushBack, false},
		{lfdeque.OpPopFront, false},
		{lfdeque.OpPopBack, true},
	} {
		if got := d.Supports(tt.op); got != tt.want {
			t.Errorf("Supports(%v): got %v, want %v", tt.op, got, tt.want)
		}
	}

	d.PushFront(5)
	d.PushBack(6)
	if _, err := d.PopFront(); !errors.Is(err, lfdeque.ErrUnsupported) {
		t.Fatalf("PopFront: got %v, want ErrUnsupported", err)
	}
	if v, err := d.PopBack(); err != nil || v != 5 {
		t.Fatalf("PopBack: got (%d, %v), want (5, nil)", v, err)
	}
	if !d.Empty() {
		t.Fatal("Empty: got false, want true")
	}
}

func TestDequeConstructors(t *testing.T) {
	deques := []lfdeque.Deque{
		lfdeque.NewDequeCAS(),
		lfdeque.NewDequeMutex(),
		lfdeque.NewDequeMwCAS(),
		lfdeque.NewDequePMwCAS(4),
	}
	for _, d := range deques {
		d.PushFront(1)
		d.PushFront(2)
		if v, err := d.PopBack(); err != nil || v != 1 {
			t.Fatalf("%T: PopBack: got (%d, %v), want (1, nil)", d, v, err)
		}
		checkValid(t, d)
	}
}
