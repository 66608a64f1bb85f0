package botapp

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/core/telegram/dedup"
	"github.com/m3rciful/boxingcrm/core/telegram/state"
)

// Janitor periodically forgets expired dedup keys, cooldowns and idle sessions.
type Janitor struct {
	Ledgers     []*dedup.Ledger
	Cooldown    *dedup.Cooldown
	Sessions    state.Store
	SessionIdle time.Duration
	Interval    time.Duration
}

// Sweep runs one pass and returns the number of dropped entries.
func (j *Janitor) Sweep(ctx context.Context) int {
	keys := 0
	for _, l := range j.Ledgers {
		if l != nil {
			keys += l.Sweep()
		}
	}
	cooldowns := 0
	if j.Cooldown != nil {
		cooldowns = j.Cooldown.Sweep()
	}
	sessions := 0
	if j.Sessions != nil && j.SessionIdle > 0 {
		sessions = j.Sessions.Sweep(j.SessionIdle)
	}
	if total := keys + cooldowns + sessions; total > 0 {
		logger.Debug(ctx, "tg", "janitor.sweep",
			slog.Int("keys", keys),
			slog.Int("cooldowns", cooldowns),
			slog.Int("sessions", sessions),
		)
	}
	return keys + cooldowns + sessions
}

// Run sweeps every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}
