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

package stopsignal_test

import (
	"sync"
	"time"

	"github.com/dkmstr/udstunnel/internal/stopsignal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Signal", func() {
	It("is not set initially", func() {
		s := stopsignal.New()
		Expect(s.IsSet()).To(BeFalse())
		Consistently(s.Done()).ShouldNot(BeClosed())
	})

	It("wakes every waiter when Set fires", func() {
		s := stopsignal.New()
		const waiters = 50

		var wg sync.WaitGroup
		wg.Add(waiters)
		for i := 0; i < waiters; i++ {
			go func() {
				defer wg.Done()
				<-s.Done()
			}()
		}

		s.Set()

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		Eventually(done).WithTimeout(2 * time.Second).Should(BeClosed())
		Expect(s.IsSet()).To(BeTrue())
	})

	It("is idempotent across repeated Set calls", func() {
		s := stopsignal.New()
		s.Set()
		s.Set()
		s.Set()

		Expect(s.Done()).To(BeClosed())
	})

	It("shares state across clones", func() {
		s := stopsignal.New()
		clone := s.Clone()

		s.Set()

		Expect(clone.Done()).To(BeClosed())
		Expect(clone.IsSet()).To(BeTrue())
	})

	It("returns immediately when awaited after it already fired", func() {
		s := stopsignal.New()
		s.Set()

		Expect(s.Done()).To(BeClosed())
	})
})
