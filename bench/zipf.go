// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Zipf samples integers in [0, n) with P(k) proportional to 1/(k+1)^skew.
// Skew 0 is uniform. A Zipf is read-only after construction and may be
// shared by goroutines that each bring their own *rand.Rand.
type Zipf struct {
	cdf []float64
}

// NewZipf builds the cumulative distribution for n items.
func NewZipf(n int, skew float64) *Zipf {
	if n < 1 {
		panic("bench: zipf needs at least one item")
	}
	cdf := make([]float64, n)
	sum := 0.0
	for k := range cdf {
		sum += 1 / math.Pow(float64(k+1), skew)
		cdf[k] = sum
	}
	for k := range cdf {
		cdf[k] /= sum
	}
	cdf[n-1] = 1
	return &Zipf{cdf: cdf}
}

// Sample draws one item.
func (z *Zipf) Sample(r *rand.Rand) int {
	k, _ := slices.BinarySearch(z.cdf, r.Float64())
	return min(k, len(z.cdf)-1)
}

// N returns the number of items.
func (z *Zipf) N() int {
	return len(z.cdf)
}
