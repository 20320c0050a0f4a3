// Package bufpool provides a tiered buffer pool for scratch allocations on
// the store's hot paths.
//
// Frame assembly and decompression need a byte slice per operation that
// lives only for the duration of one read or write. Pooling them keeps the
// append and read paths from churning the garbage collector under load.
//
// Buffers come in three size classes; requests above the large class are
// allocated directly and never pooled, so one oversized record does not pin
// a giant buffer for the rest of the process lifetime.
package bufpool

import (
	"sync"
)

// Default size classes. Small covers frame headers and index marks, medium
// covers typical records, large covers records up to one megabyte.
const (
	DefaultSmallSize  = 4 << 10
	DefaultMediumSize = 64 << 10
	DefaultLargeSize  = 1 << 20
)

// Pool hands out byte slices by size class. All methods are safe for
// concurrent use.
type Pool struct {
	small      sync.Pool
	medium     sync.Pool
	large      sync.Pool
	smallSize  int
	mediumSize int
	largeSize  int
}

// Config overrides the pool's size classes. Zero values fall back to the
// defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// NewPool creates a buffer pool. A nil config uses the default size
// classes.
func NewPool(cfg *Config) *Pool {
	p := &Pool{
		smallSize:  DefaultSmallSize,
		mediumSize: DefaultMediumSize,
		largeSize:  DefaultLargeSize,
	}
	if cfg != nil {
		if cfg.SmallSize > 0 {
			p.smallSize = cfg.SmallSize
		}
		if cfg.MediumSize > 0 {
			p.mediumSize = cfg.MediumSize
		}
		if cfg.LargeSize > 0 {
			p.largeSize = cfg.LargeSize
		}
	}

	p.small.New = func() any {
		buf := make([]byte, p.smallSize)
		return &buf
	}
	p.medium.New = func() any {
		buf := make([]byte, p.mediumSize)
		return &buf
	}
	p.large.New = func() any {
		buf := make([]byte, p.largeSize)
		return &buf
	}
	return p
}

// Get returns a slice of exactly the requested length, backed by a pooled
// buffer of the next size class up. The contents are NOT zeroed; callers
// overwrite or clear what they use. Pair every Get with a Put.
//
// Requests above the large class allocate directly and are not pooled.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte
	switch {
	case size <= p.smallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= p.mediumSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= p.largeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}
	return (*bufPtr)[:size]
}

// Put returns a buffer obtained from Get to its pool. Buffers whose
// capacity matches no size class (oversized allocations, foreign slices)
// are left for the garbage collector. Put(nil) is a no-op.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}

	full := buf[:cap(buf)]
	switch cap(buf) {
	case p.smallSize:
		p.small.Put(&full)
	case p.mediumSize:
		p.medium.Put(&full)
	case p.largeSize:
		p.large.Put(&full)
	}
}

// globalPool serves the package-level Get and Put.
var globalPool = NewPool(nil)

// Get returns a slice of the requested length from the process-wide pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the process-wide pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
