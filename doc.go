// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfdeque provides unbounded concurrent queues and deques of
// machine words, each on one of four synchronization backends:
//
//   - CAS: single-word compare-and-swap (Michael–Scott queue, prev-linked deque)
//   - Mutex: reader/writer locks, the baseline
//   - MwCAS: multi-word CAS from package mwcas
//   - PMwCAS: multi-word CAS from package pmwcas, with pooled descriptors
//
// # Quick Start
//
// Direct constructors:
//
//	q := lfdeque.NewQueueCAS()
//	d := lfdeque.NewDequeMwCAS()
//
// Builder API selects the backend at run time:
//
//	b, _ := lfdeque.ParseBackend("pmwcas")
//	q := lfdeque.New().Backend(b).Partitions(8).BuildQueue()
//
// # Basic Usage
//
// Pushes never fail. Pops return ErrWouldBlock when the structure is empty:
//
//	q.Push(42)
//	v, err := q.Pop()
//	if lfdeque.IsWouldBlock(err) {
//	    // Queue is empty - try again later
//	}
//
// Front and Back return an unspecified value on an empty structure; check
// Empty first when that matters.
//
// # Nodes and Reclamation
//
// Nodes live in a per-structure arena and link to each other by handle, so
// every link is one word that CAS and the multi-word engines can operate
// on. Two reserved handles serve as front and back sentinels and are never
// reclaimed.
//
// The CAS, MwCAS and PMwCAS backends wrap every operation in an epoch
// guard (package epoch) and retire a node once it is unlinked. The handle
// becomes reusable only after every guard that could still see it has
// exited. The Mutex backend frees unlinked nodes at once; its locks
// already exclude every reader.
//
// # Link Orientation
//
// Each backend keeps one orientation; they are not interchangeable at the
// link level:
//
//   - QueueCAS, QueueMwCAS, QueueMutex: head and tail words around a sliding dummy node
//   - QueuePMwCAS: front.next is the first node, back.next the last
//   - DequeCAS: prev links only, from back toward front; front.prev names the front-most node
//   - DequeMutex, DequeMwCAS, DequePMwCAS: front.next and back.prev, doubly linked
//
// # Partial Backends
//
// DequeCAS implements PushFront and PopBack only. Its PushBack does nothing
// and its PopFront returns ErrUnsupported. Callers that drive an arbitrary
// Deque check [Supports] first:
//
//	if lfdeque.Supports(d, lfdeque.OpPopFront) {
//	    d.PopFront()
//	}
//
// # Progress
//
// The CAS and PMwCAS backends are lock-free, except that a DequeCAS pop
// may wait for a concurrent push to publish its front link. The MwCAS
// backend is lock-free for writers but a reader may wait on an in-flight
// commit. None
// is wait-free: an operation may retry indefinitely under adversarial
// contention, and there is no way to cancel it.
//
// # Validation
//
// Every backend implements [Validator]. IsValid walks the chain between the
// sentinels and is meant for tests run without concurrent mutation.
//
// # Race Detection
//
// Go's race detector is not designed for lock-free algorithm verification.
// It does not see atomix operations, so node hand-off through the arena
// appears as a data race. Concurrent tests are skipped under -race via
// [RaceEnabled].
package lfdeque
