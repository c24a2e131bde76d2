package miner

import (
	"sync/atomic"
	"time"
)

// HashrateCounter Running total of computed hashes since the search started. It is not reset per job.
type HashrateCounter struct {
	started time.Time
	total   atomic.Uint64
}

func NewHashrateCounter(started time.Time) *HashrateCounter {
	return &HashrateCounter{
		started: started,
	}
}

func (c *HashrateCounter) Add(n uint64) {
	c.total.Add(n)
}

func (c *HashrateCounter) Total() uint64 {
	return c.total.Load()
}

func (c *HashrateCounter) Started() time.Time {
	return c.started
}

// Rate Hashes per second averaged since start
func (c *HashrateCounter) Rate(now time.Time) float64 {
	elapsed := now.Sub(c.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(c.Total()) / elapsed
}
