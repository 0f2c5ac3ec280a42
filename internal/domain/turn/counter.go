package turn

import "sync/atomic"

// Counter hands out turn numbers. The first call to Next returns 1.
type Counter struct {
	n atomic.Int64
}

// Next allocates the next turn number.
func (c *Counter) Next() int64 {
	return c.n.Add(1)
}

// Current returns the last allocated turn number, 0 if none.
func (c *Counter) Current() int64 {
	return c.n.Load()
}
