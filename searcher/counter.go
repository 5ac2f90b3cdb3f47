package searcher

import "sync/atomic"

// Counter counts the nodes searched for one move. It is shared by every
// goroutine of the search.
type Counter struct {
	nodes   atomic.Int64
	limit   int64 // Hard node limit in nodes as time mode, 0 if none
	onLimit func()
}

// Add counts n more nodes and reports whether the search may go on. With a
// limit the count never goes past it, the rest of the chunk is not searched.
func (c *Counter) Add(n int64) bool {
	if c.limit <= 0 {
		c.nodes.Add(n)
		return true
	}

	for {
		nodes := c.nodes.Load()
		next := min(nodes+n, c.limit)
		if !c.nodes.CompareAndSwap(nodes, next) {
			continue
		}
		if next < c.limit {
			return true
		}
		if c.onLimit != nil {
			c.onLimit()
		}
		return false
	}
}

func (c *Counter) Nodes() int64 {
	return c.nodes.Load()
}

func (c *Counter) reset(limit int64, onLimit func()) {
	c.nodes.Store(0)
	c.limit = limit
	c.onLimit = onLimit
}
