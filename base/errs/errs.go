// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs turns recovered panics into errors, for goroutines that
// must survive a panicking callback. Logging helpers are in
// [cogentcore.org/core/base/errors].
package errs

import (
	"fmt"
	"runtime/debug"
)

// PanicError is the error made from a recovered panic value.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	// Stack is the stack trace of the panicking goroutine.
	Stack []byte
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", pe.Value)
}

// Unwrap returns the panic value if it is an error.
func (pe *PanicError) Unwrap() error {
	if err, ok := pe.Value.(error); ok {
		return err
	}
	return nil
}

// Recover converts the given result of recover() into a [*PanicError],
// returning nil if r is nil. It must be called directly inside the
// deferred function so that the captured stack is the panicking one:
//
//	defer func() { err = errs.Recover(recover()) }()
func Recover(r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}

// Protect runs f, returning any error it returns or any panic it
// raises as an error.
func Protect(f func() error) (err error) {
	defer func() {
		if perr := Recover(recover()); perr != nil {
			err = perr
		}
	}()
	return f()
}
