// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package buffer

import (
	"math/bits"
	"sync"
)

// Pool hands out reusable byte slices to codec and transport code. Borrowed
// slices must be returned with Put once the caller is done with them.
type Pool interface {
	// Get returns a slice with at least the requested capacity and zero length.
	Get(capacity int) []byte
	// Put returns a slice to the pool. Slices of unknown origin are accepted
	// and may simply be dropped.
	Put(buf []byte)
}

const (
	// minBucketBits is the smallest bucket size (512 bytes) expressed as a
	// power of two.
	minBucketBits = 9
	// maxBucketBits caps pooled slices at 1 MiB; larger requests bypass the
	// pool entirely.
	maxBucketBits = 20
)

// sizedPool buckets slices by power-of-two capacity, one sync.Pool per bucket.
type sizedPool struct {
	buckets [maxBucketBits - minBucketBits + 1]sync.Pool
}

// NewPool creates a size-bucketed pool suitable for mixed protocol traffic.
func NewPool() Pool {
	p := &sizedPool{}
	for i := range p.buckets {
		size := 1 << (minBucketBits + i)
		p.buckets[i].New = func() interface{} {
			return make([]byte, 0, size)
		}
	}
	return p
}

func bucketIndex(capacity int) int {
	if capacity <= 1<<minBucketBits {
		return 0
	}
	idx := bits.Len(uint(capacity-1)) - minBucketBits
	if idx > maxBucketBits-minBucketBits {
		return -1
	}
	return idx
}

// Get returns a zero-length slice with at least the requested capacity.
func (p *sizedPool) Get(capacity int) []byte {
	if capacity < 0 {
		capacity = 0
	}
	idx := bucketIndex(capacity)
	if idx < 0 {
		return make([]byte, 0, capacity)
	}
	return p.buckets[idx].Get().([]byte)[:0]
}

// Put returns a slice to its bucket. Slices larger than the largest bucket or
// smaller than the smallest are dropped.
func (p *sizedPool) Put(buf []byte) {
	c := cap(buf)
	if c < 1<<minBucketBits || c > 1<<maxBucketBits {
		return
	}
	// Only exact bucket sizes go back, so Get's capacity promise holds.
	if c&(c-1) != 0 {
		return
	}
	idx := bits.Len(uint(c-1)) - minBucketBits
	if idx < 0 || idx >= len(p.buckets) {
		return
	}
	p.buckets[idx].Put(buf[:0]) //nolint:staticcheck // slice is pooled by value on purpose
}
