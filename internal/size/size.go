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

// Package size implements the byte-count type used by the config's logsize
// field: parsing of "10M"-style human values and human-readable formatting.
package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count.
type Size uint64

const (
	SizeNul  Size = 0
	SizeKilo Size = 1 << 10
	SizeMega Size = 1 << 20
	SizeGiga Size = 1 << 30
	SizeTera Size = 1 << 40
	SizePeta Size = 1 << 50
	SizeExa  Size = 1 << 60
)

var units = []struct {
	suffix string
	size   Size
}{
	{"EB", SizeExa},
	{"E", SizeExa},
	{"PB", SizePeta},
	{"P", SizePeta},
	{"TB", SizeTera},
	{"T", SizeTera},
	{"GB", SizeGiga},
	{"G", SizeGiga},
	{"MB", SizeMega},
	{"M", SizeMega},
	{"KB", SizeKilo},
	{"K", SizeKilo},
	{"B", 1},
}

// Parse reads a human size like "10M", "1.5GB" or "512" (bytes, no suffix).
// Suffixes are case-insensitive.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SizeNul, fmt.Errorf("size: empty value")
	}

	up := strings.ToUpper(s)

	for _, u := range units {
		if strings.HasSuffix(up, u.suffix) {
			num := strings.TrimSpace(up[:len(up)-len(u.suffix)])
			if num == "" {
				continue
			}

			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return SizeNul, fmt.Errorf("size: invalid numeric value %q: %w", num, err)
			}

			return Size(f * float64(u.size)), nil
		}
	}

	f, err := strconv.ParseFloat(up, 64)
	if err != nil {
		return SizeNul, fmt.Errorf("size: cannot parse %q", s)
	}

	return Size(f), nil
}

func (s Size) String() string {
	switch {
	case s >= SizeExa:
		return fmt.Sprintf("%.2fEB", float64(s)/float64(SizeExa))
	case s >= SizePeta:
		return fmt.Sprintf("%.2fPB", float64(s)/float64(SizePeta))
	case s >= SizeTera:
		return fmt.Sprintf("%.2fTB", float64(s)/float64(SizeTera))
	case s >= SizeGiga:
		return fmt.Sprintf("%.2fGB", float64(s)/float64(SizeGiga))
	case s >= SizeMega:
		return fmt.Sprintf("%.2fMB", float64(s)/float64(SizeMega))
	case s >= SizeKilo:
		return fmt.Sprintf("%.2fKB", float64(s)/float64(SizeKilo))
	default:
		return fmt.Sprintf("%dB", uint64(s))
	}
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}

	*s = v
	return nil
}

func (s Size) Uint64() uint64 {
	return uint64(s)
}
