// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque_test

import (
	"testing"

	"code.hybscloud.com/lfdeque"
)

// =============================================================================
// Queue Benchmarks
// =============================================================================

func BenchmarkQueue_SingleOp(b *testing.B) {
	for _, k := range lfdeque.Backends {
		b.Run(k.String(), func(b *testing.B) {
			q := lfdeque.New().Backend(k).BuildQueue()

			b.ResetTimer()
			for i := range b.N {
				q.Push(lfdeque.Word(i))
				q.Pop()
			}
		})
	}
}

func BenchmarkQueue_Parallel(b *testing.B) {
	if lfdeque.RaceEnabled {
		b.Skip("skip: arena node reuse is ordered by atomix operations")
	}
	for _, k := range lfdeque.Backends {
		b.Run(k.String(), func(b *testing.B) {
			q := lfdeque.New().Backend(k).BuildQueue()

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				var i lfdeque.Word
				for pb.Next() {
					q.Push(i)
					q.Pop()
					i++
				}
			})
		})
	}
}

// =============================================================================
// Deque Benchmarks
// =============================================================================

func BenchmarkDeque_SingleOp(b *testing.B) {
	for _, k := range lfdeque.Backends {
		b.Run(k.String(), func(b *testing.B) {
			d := lfdeque.New().Backend(k).BuildDeque()

			b.ResetTimer()
			for i := range b.N {
				d.PushFront(lfdeque.Word(i))
				d.PopBack()
			}
		})
	}
}

func BenchmarkDeque_Parallel(b *testing.B) {
	if lfdeque.RaceEnabled {
		b.Skip("skip: arena node reuse is ordered by atomix operations")
	}
	for _, k := range lfdeque.Backends {
		b.Run(k.String(), func(b *testing.B) {
			d := lfdeque.New().Backend(k).BuildDeque()
			for i := range lfdeque.Word(1024) {
				d.PushFront(i)
			}

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				var i lfdeque.Word
				for pb.Next() {
					d.PushFront(i)
					d.PopBack()
					i++
				}
			})
		})
	}
}
