package utils

import (
	"context"
	"time"
)

// ContextTick behaves like time.Tick but stops and closes the channel once ctx is done
func ContextTick(ctx context.Context, d time.Duration) <-chan time.Time {
	ticker := time.NewTicker(d)
	c := make(chan time.Time, 1)
	go func() {
		defer close(c)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				select {
				case c <- tick:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return c
}
