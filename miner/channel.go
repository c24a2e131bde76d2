package miner

import (
	"context"
	"git.gammaspectra.live/P2Pool/stratum-miner/stratum"
	"sync"
	"time"
)

// JobChannel Single slot handoff of the latest job. Publishing overwrites any job not yet consumed.
type JobChannel struct {
	lock    sync.Mutex
	pending *stratum.Job
	// notify holds at most one wakeup, consumers re-check pending after receiving
	notify chan struct{}
}

func NewJobChannel() *JobChannel {
	return &JobChannel{
		notify: make(chan struct{}, 1),
	}
}

func (c *JobChannel) Publish(job *stratum.Job) {
	func() {
		c.lock.Lock()
		defer c.lock.Unlock()
		c.pending = job
	}()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *JobChannel) take() *stratum.Job {
	c.lock.Lock()
	defer c.lock.Unlock()
	job := c.pending
	c.pending = nil
	return job
}

// Consume Blocks until a job is available and returns the most recently published one
func (c *JobChannel) Consume(ctx context.Context) (*stratum.Job, error) {
	for {
		if job := c.take(); job != nil {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.notify:
		}
	}
}

func (c *JobChannel) HasPending() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pending != nil
}

// WaitPending Waits up to timeout for a job to be published. It does not consume it.
func (c *JobChannel) WaitPending(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if c.HasPending() {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return c.HasPending()
		case <-c.notify:
		}
	}
}
