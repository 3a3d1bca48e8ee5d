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

// Package atomicx is a small generic wrapper around sync/atomic.Value,
// used wherever a single typed field needs lock-free read/write/clear-once
// semantics without hand-rolling a type assertion at every call site.
package atomicx

import "sync/atomic"

// Value is a type-safe, lock-free container for a single value of type T.
type Value[T comparable] interface {
	Load() T
	Store(val T)
	// CompareAndSwap atomically compares the current value with old and, if
	// they match, stores new. Lets a field be cleared exactly once under
	// concurrent access.
	CompareAndSwap(old, new T) (swapped bool)
}

type val[T comparable] struct {
	av atomic.Value
}

// NewValue returns a Value[T] initialized to the zero value of T.
func NewValue[T comparable]() Value[T] {
	o := &val[T]{}
	var zero T
	o.av.Store(box[T]{v: zero})
	return o
}

// box wraps T so that atomic.Value.Store always receives a single concrete
// type, even across calls that happen to store the zero value.
type box[T comparable] struct {
	v T
}

func (o *val[T]) Load() T {
	b, _ := o.av.Load().(box[T])
	return b.v
}

func (o *val[T]) Store(val T) {
	o.av.Store(box[T]{v: val})
}

func (o *val[T]) CompareAndSwap(old, new T) bool {
	return o.av.CompareAndSwap(box[T]{v: old}, box[T]{v: new})
}
