// Package mempool provides size-classed slice pools for the per-page scratch
// buffers used while extracting word regions.
package mempool

import "sync"

const step = 1024

// sizeClass rounds n up to the next multiple of 1024, with 1024 as the minimum.
func sizeClass(n int) int {
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

// Pool hands out zeroed []T buffers grouped by size class.
type Pool[T any] struct {
	classes sync.Map // size class -> *sync.Pool
}

func (p *Pool[T]) pool(cls int) *sync.Pool {
	sp, _ := p.classes.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]T, cls)
		return &buf
	}})
	return sp.(*sync.Pool)
}

// Get returns a zeroed buffer of length n. Return it with Put when done.
func (p *Pool[T]) Get(n int) []T {
	if n <= 0 {
		return nil
	}
	cls := sizeClass(n)
	bufp, _ := p.pool(cls).Get().(*[]T)
	if bufp == nil || cap(*bufp) < cls {
		return make([]T, n)
	}
	buf := (*bufp)[:n]
	clear(buf)
	return buf
}

// Put returns a buffer to the pool. Nil buffers and buffers whose capacity is
// not a size class are ignored.
func (p *Pool[T]) Put(buf []T) {
	c := cap(buf)
	if c == 0 || sizeClass(c) != c {
		return
	}
	buf = buf[:c]
	p.pool(c).Put(&buf)
}

var (
	// Bools pools morphology scratch masks.
	Bools Pool[bool]
	// Int32s pools component label maps.
	Int32s Pool[int32]
)
