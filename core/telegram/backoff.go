package telegram

import (
	"time"

	"github.com/m3rciful/boxingcrm/core/telegram/netutil"
)

// BackoffPolicy decides how long the poller sleeps after a failed getUpdates.
// Read timeouts use a short flat pause; connect and other failures grow
// exponentially with consecutive failures up to Max.
type BackoffPolicy struct {
	ReadTimeout time.Duration
	Connect     time.Duration
	Other       time.Duration
	Max         time.Duration
}

// DefaultBackoff returns the policy used in production.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		ReadTimeout: 2 * time.Second,
		Connect:     3 * time.Second,
		Other:       5 * time.Second,
		Max:         time.Minute,
	}
}

// Delay returns the pause before the next attempt. failures counts consecutive
// failed polls including the current one.
func (p BackoffPolicy) Delay(err error, failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	var base time.Duration
	switch {
	case netutil.IsConnect(err):
		base = p.Connect
	case netutil.IsTimeout(err):
		return p.capped(p.ReadTimeout)
	default:
		base = p.Other
	}
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	return p.capped(d)
}

func (p BackoffPolicy) capped(d time.Duration) time.Duration {
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}
