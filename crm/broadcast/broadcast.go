// Package broadcast fans a message out to every bound parent or child.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/crm/domain"

	tele "gopkg.in/telebot.v4"
)

// Defaults used when Options leave a field zero.
const (
	DefaultPageSize     = 1000
	DefaultSuccessDelay = 50 * time.Millisecond
	DefaultFailureDelay = 200 * time.Millisecond
)

// Sender delivers one message and reports success.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, opts *tele.SendOptions) bool
}

// Options tune pacing.
type Options struct {
	PageSize     int
	SuccessDelay time.Duration
	FailureDelay time.Duration
	// Sleep pauses between sends and returns early with ctx's error.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Result counts deliveries.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Coordinator pages through an audience and sends to each recipient.
type Coordinator struct {
	store  domain.Store
	sender Sender
	opts   Options
}

// New returns a coordinator over store and sender.
func New(store domain.Store, sender Sender, opts Options) *Coordinator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.SuccessDelay <= 0 {
		opts.SuccessDelay = DefaultSuccessDelay
	}
	if opts.FailureDelay <= 0 {
		opts.FailureDelay = DefaultFailureDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	return &Coordinator{store: store, sender: sender, opts: opts}
}

// Broadcast sends text to every recipient of audience. A failed recipient
// is counted and skipped; only ctx ends the run early, in which case the
// partial counts are returned with ctx's error.
func (c *Coordinator) Broadcast(ctx context.Context, audience domain.Audience, text string) (Result, error) {
	var res Result
	if !audience.Valid() {
		return res, fmt.Errorf("broadcast %q: %w", audience, domain.ErrUnknownAudience)
	}
	if strings.TrimSpace(text) == "" {
		return res, nil
	}

	start := time.Now()
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	var after int64
	for {
		page, err := c.page(ctx, audience, after)
		if err != nil {
			return res, err
		}
		for _, r := range page {
			after = r.ID
			chatID, err := strconv.ParseInt(r.TgID, 10, 64)
			if err != nil {
				continue
			}
			delay := c.opts.SuccessDelay
			if c.sender.Send(ctx, chatID, text, opts) {
				res.Sent++
			} else {
				res.Failed++
				delay = c.opts.FailureDelay
			}
			if err := c.opts.Sleep(ctx, delay); err != nil {
				c.log(ctx, audience, res, start, err)
				return res, err
			}
		}
		if len(page) < c.opts.PageSize {
			break
		}
	}
	c.log(ctx, audience, res, start, nil)
	return res, nil
}

func (c *Coordinator) page(ctx context.Context, audience domain.Audience, after int64) ([]domain.Recipient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var page []domain.Recipient
	err := c.store.InTx(ctx, func(tx domain.Tx) error {
		var err error
		page, err = tx.Recipients(ctx, audience, after, c.opts.PageSize)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("broadcast page after %d: %w", after, err)
	}
	return page, nil
}

func (c *Coordinator) log(ctx context.Context, audience domain.Audience, res Result, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("audience", string(audience)),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.Warn(ctx, "broadcast", "broadcast.stopped", append(attrs, logger.Err(err))...)
		return
	}
	logger.Info(ctx, "broadcast", "broadcast.done", attrs...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
