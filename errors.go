// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfdeque

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a pop found the structure empty.
//
// ErrWouldBlock is a control flow signal, not a failure. The structures are
// unbounded, so pushes never return it.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := q.Pop()
//	    if err == nil {
//	        backoff.Reset()
//	        handle(v)
//	        continue
//	    }
//	    if lfdeque.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrUnsupported is returned by an operation a partial backend does not
// implement. See [Partial].
var ErrUnsupported = errors.ErrUnsupported

// IsWouldBlock reports whether err indicates the structure was empty.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
