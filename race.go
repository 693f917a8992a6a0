// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package lfdeque

// RaceEnabled is true when the race detector is active.
// Tests use it to skip concurrent runs: atomix operations are invisible to
// the detector, so node hand-off through the arena reads as a data race.
const RaceEnabled = true
