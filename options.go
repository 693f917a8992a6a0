// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"fmt"
	"strings"
)

// Backend selects the synchronization primitive behind a queue or deque.
type Backend uint8

const (
	// CAS uses single-word compare-and-swap with epoch reclamation.
	CAS Backend = iota
	// Mutex uses locks and frees nodes immediately.
	Mutex
	// MwCAS uses the mwcas engine with epoch reclamation.
	MwCAS
	// PMwCAS uses the pmwcas provider with its own epoch protection.
	PMwCAS
)

// Backends lists every backend in declaration order.
var Backends = []Backend{CAS, Mutex, MwCAS, PMwCAS}

var backendNames = [...]string{"cas", "mutex", "mwcas", "pmwcas"}

func (b Backend) String() string {
	if int(b) < len(backendNames) {
		return backendNames[b]
	}
	return fmt.Sprintf("backend(%d)", uint8(b))
}

// ParseBackend returns the backend named s (case-insensitive).
func ParseBackend(s string) (Backend, error) {
	for i, name := range backendNames {
		if strings.EqualFold(s, name) {
			return Backend(i), nil
		}
	}
	return 0, fmt.Errorf("lfdeque: unknown backend %q", s)
}

// Options configures structure creation.
type Options struct {
	backend Backend

	// Reclaimer participant slots; 0 selects the epoch package default.
	participants int

	// Arena free ring capacity; 0 selects the arena default.
	freeList int

	// pmwcas descriptor pool size and partitions; 0 selects defaults.
	descriptors int
	partitions  int
}

// Builder creates queues and deques with fluent configuration.
//
// Example:
//
//	q := lfdeque.New().MwCAS().BuildQueue()
//	d := lfdeque.New().PMwCAS().Partitions(8).BuildDeque()
type Builder struct {
	opts Options
}

// New creates a builder for the CAS backend with default sizing.
func New() *Builder {
	return &Builder{}
}

// Backend selects the backend.
func (b *Builder) Backend(k Backend) *Builder {
	if int(k) >= len(backendNames) {
		panic("lfdeque: unknown backend")
	}
	b.opts.backend = k
	return b
}

// CAS selects the single-word CAS backend.
func (b *Builder) CAS() *Builder { return b.Backend(CAS) }

// Mutex selects the lock-based backend.
func (b *Builder) Mutex() *Builder { return b.Backend(Mutex) }

// MwCAS selects the mwcas backend.
func (b *Builder) MwCAS() *Builder { return b.Backend(MwCAS) }

// PMwCAS selects the pmwcas backend.
func (b *Builder) PMwCAS() *Builder { return b.Backend(PMwCAS) }

// Participants sets the number of reclaimer slots, which bounds the number
// of operations in flight at once.
func (b *Builder) Participants(n int) *Builder {
	if n < 0 {
		panic("lfdeque: participants must be >= 0")
	}
	b.opts.participants = n
	return b
}

// FreeList sets the capacity of the ring that recycles node handles.
func (b *Builder) FreeList(n int) *Builder {
	if n < 0 {
		panic("lfdeque: free list must be >= 0")
	}
	b.opts.freeList = n
	return b
}

// Descriptors sets the pmwcas descriptor pool size.
func (b *Builder) Descriptors(n int) *Builder {
	if n < 0 {
		panic("lfdeque: descriptors must be >= 0")
	}
	b.opts.descriptors = n
	return b
}

// Partitions sets the expected number of concurrent goroutines for the
// pmwcas pool.
func (b *Builder) Partitions(n int) *Builder {
	if n < 0 {
		panic("lfdeque: partitions must be >= 0")
	}
	b.opts.partitions = n
	return b
}

// BuildQueue creates a queue on the selected backend.
func (b *Builder) BuildQueue() Queue {
	switch b.opts.backend {
	case Mutex:
		return newQueueMutex(&b.opts)
	case MwCAS:
		return newQueueMwCAS(&b.opts)
	case PMwCAS:
		return newQueuePMwCAS(&b.opts)
	default:
		return newQueueCAS(&b.opts)
	}
}

// BuildDeque creates a deque on the selected backend.
func (b *Builder) BuildDeque() Deque {
	switch b.opts.backend {
	case Mutex:
		return newDequeMutex(&b.opts)
	case MwCAS:
		return newDequeMwCAS(&b.opts)
	case PMwCAS:
		return newDequePMwCAS(&b.opts)
	default:
		return newDequeCAS(&b.opts)
	}
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
