package scan

import (
	"slices"
	"sync/atomic"
)

const (
	collectorIdle int32 = iota
	collectorReceiving
	collectorDone
)

// collector owns the bounded open-port channel. Many probe tasks
// send; exactly one goroutine runs collect and owns the accumulating
// slice, so it needs no locking. A full buffer blocks senders until
// the receiving loop drains space; nothing is ever dropped.
type collector struct {
	results chan uint16
	state   atomic.Int32
}

func newCollector(buffer int) *collector {
	return &collector{results: make(chan uint16, buffer)}
}

// report delivers one open port. Blocks while the buffer is full.
// Must not be called after close; the channel is closed only once
// every sender has finished, so a panic here means a lifecycle bug,
// not a network condition, and is left to abort the scan.
func (c *collector) report(port uint16) {
	c.results <- port
}

// close signals that all senders are done. Call exactly once, after
// every report has returned.
func (c *collector) close() {
	close(c.results)
}

// collect receives until the channel is closed and its buffer is
// drained, then returns the accumulated ports sorted ascending.
func (c *collector) collect() []uint16 {
	c.state.Store(collectorReceiving)
	var open []uint16
	for port := range c.results {
		open = append(open, port)
	}
	slices.Sort(open)
	c.state.Store(collectorDone)
	return open
}
