// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

// Word is the element type: one machine word.
type Word = uint64

// Queue is a concurrent unbounded FIFO queue.
//
// The interface intentionally excludes length because accurate counts in
// lock-free algorithms require expensive cross-core synchronization.
//
// Example:
//
//	q := lfdeque.NewQueueCAS()
//	q.Push(42)
//	v, err := q.Pop()
//	if err == nil {
//	    fmt.Println(v)
//	}
type Queue interface {
	// Front returns the oldest element. The result is unspecified when the
	// queue is empty; check Empty first.
	Front() Word

	// Back returns the newest element. The result is unspecified when the
	// queue is empty.
	Back() Word

	// Push appends x at the back.
	Push(x Word)

	// Pop removes and returns the front element.
	// Returns (0, ErrWouldBlock) if the queue is empty.
	Pop() (Word, error)

	// Empty reports whether the queue holds no element.
	Empty() bool
}

// Deque is a concurrent unbounded double-ended queue.
type Deque interface {
	// Front returns the element at the front end. The result is
	// unspecified when the deque is empty; check Empty first.
	Front() Word

	// Back returns the element at the back end. Unspecified when empty.
	Back() Word

	// PushFront inserts x at the front end.
	PushFront(x Word)

	// PushBack inserts x at the back end.
	PushBack(x Word)

	// PopFront removes and returns the front element.
	// Returns (0, ErrWouldBlock) if the deque is empty.
	PopFront() (Word, error)

	// PopBack removes and returns the back element.
	// Returns (0, ErrWouldBlock) if the deque is empty.
	PopBack() (Word, error)

	// Empty reports whether the deque holds no element.
	Empty() bool
}

// Validator is implemented by every backend for testing.
//
// IsValid walks the chain from one sentinel to the other and reports
// whether it is well formed: the far end is reached exactly once, there is
// no cycle, and the end pointers agree with the chain. It assumes no
// concurrent mutation.
type Validator interface {
	IsValid() bool
}

// Op names one operation of the Deque capability set.
type Op uint8

const (
	OpFront Op = iota
	OpBack
	OpPushFront
	OpPushBack
	OpPopFront
	OpPopBack
)

var opNames = [...]string{"front", "back", "push_front", "push_back", "pop_front", "pop_back"}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "op(?)"
}

// Partial is implemented by backends that leave part of the capability set
// unimplemented.
type Partial interface {
	Supports(op Op) bool
}

// Supports reports whether x implements op. Values that do not implement
// [Partial] support every operation.
func Supports(x any, op Op) bool {
	if p, ok := x.(Partial); ok {
		return p.Supports(op)
	}
	return true
}
