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

package counters_test

import (
	"sync"

	"github.com/dkmstr/udstunnel/internal/counters"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Counters", func() {
	Describe("Snapshot", func() {
		It("reflects every mutation independently", func() {
			c := counters.New()
			c.IncTotal()
			c.IncTotal()
			c.IncConcurrent()
			c.AddSent(100)
			c.AddRecv(50)
			c.DecConcurrent()
			c.IncConcurrent()

			snap := c.Snapshot()
			Expect(snap.Total).To(BeEquivalentTo(2))
			Expect(snap.Concurrent).To(BeEquivalentTo(1))
			Expect(snap.Sent).To(BeEquivalentTo(100))
			Expect(snap.Recv).To(BeEquivalentTo(50))
			Expect(snap.Elapsed).To(BeNumerically(">", 0))
		})
	})

	Describe("AddSent/AddRecv", func() {
		Context("with a non-positive delta", func() {
			It("is a no-op", func() {
				c := counters.New()
				c.AddSent(0)
				c.AddSent(-5)
				c.AddRecv(-1)

				snap := c.Snapshot()
				Expect(snap.Sent).To(BeEquivalentTo(0))
				Expect(snap.Recv).To(BeEquivalentTo(0))
			})
		})
	})

	Describe("concurrent access", func() {
		It("keeps totals exact under a hundred racing goroutines", func() {
			c := counters.New()
			var wg sync.WaitGroup
			const n = 100

			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					c.IncTotal()
					c.AddSent(1)
				}()
			}
			wg.Wait()

			snap := c.Snapshot()
			Expect(snap.Total).To(BeEquivalentTo(n))
			Expect(snap.Sent).To(BeEquivalentTo(n))
		})
	})
})
