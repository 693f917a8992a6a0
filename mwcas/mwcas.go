// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mwcas provides a multi-word compare-and-swap over atomix words.
//
// A Descriptor collects up to MaxTargets (address, expected, desired)
// triples. Commit installs a marker into every target in address order,
// each with a single-word CAS against the expected value. If every marker
// lands, the desired values are stored and Commit reports true; if any CAS
// fails, the markers already installed are rolled back to their expected
// values and Commit reports false. Nothing is visible to Read in between:
// Read waits for a marked word to settle.
//
// Descriptors live on the caller's stack and need no reclamation. The price
// is that a reader may wait on a committing goroutine; committers never
// wait on each other.
//
// Word values must leave bit 63 clear. It marks an in-flight descriptor.
package mwcas

import (
	"slices"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MaxTargets is the maximum number of words in one descriptor.
const MaxTargets = 8

// Flag marks a word that holds an in-flight descriptor.
const Flag uint64 = 1 << 63

var ids atomix.Uint64

type target struct {
	addr     *atomix.Uint64
	expected uint64
	desired  uint64
}

// Descriptor is one multi-word CAS attempt. The zero value is empty and
// ready for use.
type Descriptor struct {
	targets [MaxTargets]target
	n       int
}

// Add appends a target. It panics if the descriptor is full or either value
// carries the descriptor flag.
func (d *Descriptor) Add(addr *atomix.Uint64, expected, desired uint64) {
	if d.n == MaxTargets {
		panic("mwcas: too many targets")
	}
	if (expected|desired)&Flag != 0 {
		panic("mwcas: value uses the descriptor flag bit")
	}
	d.targets[d.n] = target{addr: addr, expected: expected, desired: desired}
	d.n++
}

// Len returns the number of targets.
func (d *Descriptor) Len() int {
	return d.n
}

// Reset empties the descriptor for another attempt.
func (d *Descriptor) Reset() {
	d.n = 0
}

// Commit atomically replaces every target's expected value with its desired
// value, or changes nothing. It panics if two targets share an address.
func (d *Descriptor) Commit() bool {
	ts := d.targets[:d.n]
	if len(ts) == 0 {
		return true
	}
	slices.SortFunc(ts, func(a, b target) int {
		return cmpAddr(a.addr, b.addr)
	})
	for i := 1; i < len(ts); i++ {
		if ts[i].addr == ts[i-1].addr {
			panic("mwcas: duplicate target address")
		}
	}

	marker := Flag | ids.AddAcqRel(1)
	for i := range ts {
		if !ts[i].addr.CompareAndSwapAcqRel(ts[i].expected, marker) {
			for j := i - 1; j >= 0; j-- {
				ts[j].addr.StoreRelease(ts[j].expected)
			}
			return false
		}
	}
	for i := range ts {
		ts[i].addr.StoreRelease(ts[i].desired)
	}
	return true
}

// Read returns the committed value of addr, waiting out an in-flight
// descriptor if one is installed there.
func Read(addr *atomix.Uint64) uint64 {
	v := addr.LoadAcquire()
	if v&Flag == 0 {
		return v
	}
	sw := spin.Wait{}
	for {
		sw.Once()
		v = addr.LoadAcquire()
		if v&Flag == 0 {
			return v
		}
	}
}

func cmpAddr(a, b *atomix.Uint64) int {
	pa, pb := uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(b))
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	}
	return 0
}
