package models

import "time"

// RetryConfig bounds how often and how fast a step is retried. One policy
// covers explicit RETRY results, step errors and panics alike.
type RetryConfig struct {
	MaxRetryCount    int
	RetryIntervalMin time.Duration
	RetryIntervalMax time.Duration
}

// Backoff returns the delay before retry attempt number attempt (1-based):
// the minimum interval doubled per prior attempt, capped at the maximum.
func (rc *RetryConfig) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return rc.RetryIntervalMin
	}
	d := rc.RetryIntervalMin
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= rc.RetryIntervalMax {
			return rc.RetryIntervalMax
		}
	}
	return d
}
