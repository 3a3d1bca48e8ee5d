/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Error extends the standard error with a code and a parent chain.
type Error interface {
	error

	Code() CodeError
	IsCode(code CodeError) bool
	HasCode(code CodeError) bool

	Add(parent ...error)
	HasParent() bool
	GetParent() []error

	// GetTrace returns the "file:line" the error was created at.
	GetTrace() string

	Unwrap() []error
}

type ers struct {
	code  CodeError
	msg   string
	trc   string
	par   []Error
	cause error // set by Make when wrapping a plain error, for errors.Is/As
}

// New creates a new Error with the given code, message and parent errors.
func New(code CodeError, message string, parent ...error) Error {
	return &ers{
		code: code,
		msg:  message,
		trc:  frame(),
		par:  wrap(parent),
	}
}

// newf formats pattern/args through fmt.Errorf so that %w verbs actually
// wrap their operand, then folds whatever was wrapped into the parent
// chain instead of discarding it.
func newf(code CodeError, pattern string, args ...any) Error {
	formatted := fmt.Errorf(pattern, args...)
	return New(code, formatted.Error(), unwrapped(formatted)...)
}

func unwrapped(err error) []error {
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		return x.Unwrap()
	case interface{ Unwrap() error }:
		if u := x.Unwrap(); u != nil {
			return []error{u}
		}
	}
	return nil
}

func wrap(parent []error) []Error {
	if len(parent) == 0 {
		return nil
	}

	p := make([]Error, 0, len(parent))

	for _, e := range parent {
		if e == nil {
			continue
		}

		p = append(p, Make(e))
	}

	return p
}

// Make converts any error into an Error, wrapping it as CodeUnknown if it
// does not already implement Error.
func Make(e error) Error {
	if e == nil {
		return nil
	}

	var err Error
	if errors.As(e, &err) {
		return err
	}

	return &ers{
		code:  CodeUnknown,
		msg:   e.Error(),
		trc:   frame(),
		cause: e,
	}
}

func frame() string {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return ""
	}

	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}

	return fmt.Sprintf("%s:%d", file, line)
}

func (e *ers) Error() string {
	if e.msg == "" {
		return e.code.String()
	}

	return e.msg
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}

	for _, p := range e.par {
		if p.HasCode(code) {
			return true
		}
	}

	return false
}

func (e *ers) Add(parent ...error) {
	e.par = append(e.par, wrap(parent)...)
}

func (e *ers) HasParent() bool {
	return len(e.par) > 0
}

func (e *ers) GetParent() []error {
	r := make([]error, 0, len(e.par)+1)
	for _, p := range e.par {
		r = append(r, p)
	}
	if e.cause != nil {
		r = append(r, e.cause)
	}
	return r
}

func (e *ers) GetTrace() string {
	return e.trc
}

func (e *ers) Unwrap() []error {
	return e.GetParent()
}

// Is reports whether e is (or wraps) an Error.
func Is(e error) bool {
	var err Error
	return errors.As(e, &err)
}

// Has reports whether e or any of its parents carries the given code.
func Has(e error, code CodeError) bool {
	var err Error
	if !errors.As(e, &err) {
		return false
	}
	return err.HasCode(code)
}
