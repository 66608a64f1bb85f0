// Package botapp connects telebot updates to the conversation engine.
package botapp

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/core/telegram/dedup"
	"github.com/m3rciful/boxingcrm/core/telegram/state"
	"github.com/m3rciful/boxingcrm/crm/conversation"

	tele "gopkg.in/telebot.v4"
)

// Handler applies one event.
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event) (conversation.Response, error)
}

// Outbound delivers responses; every call is best-effort.
type Outbound interface {
	Send(ctx context.Context, chatID int64, text string, opts *tele.SendOptions) bool
	RemoveInline(ctx context.Context, chatID int64, messageID int) bool
	Answer(ctx context.Context, cb *tele.Callback, text string) bool
}

// Alerter fans a text out to the admins.
type Alerter interface {
	Notify(ctx context.Context, text string) int
}

// Pipeline filters redelivered updates, serializes each user and delivers
// what the engine returns.
type Pipeline struct {
	Engine   Handler
	Sessions state.Store
	Messages *dedup.Ledger
	Presses  *dedup.Ledger
	Starts   *dedup.Cooldown
	Out      Outbound
	Alerts   Alerter
}

// Process handles ev end to end. The returned error is the engine's; the
// delivery never fails the event.
func (p *Pipeline) Process(ctx context.Context, ev conversation.Event) error {
	start := time.Now()
	if p.duplicate(ctx, ev) {
		return nil
	}

	unlock := p.Sessions.Lock(ev.UserID)
	resp, err := p.Engine.Handle(ctx, ev)
	unlock()
	if err != nil {
		if ev.Kind == conversation.KindCallback {
			p.Out.Answer(ctx, &tele.Callback{ID: ev.CallbackID}, "")
		}
		return err
	}

	p.deliver(ctx, ev, resp)
	logger.Info(ctx, "tg", "handler.done",
		slog.String("kind", ev.Kind.String()),
		slog.String("role", resp.Role),
		slog.String("step", string(resp.Step)),
		slog.Int("messages", len(resp.Messages)),
		slog.Int("alerts", len(resp.Alerts)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (p *Pipeline) duplicate(ctx context.Context, ev conversation.Event) bool {
	reason := ""
	switch {
	case ev.Kind == conversation.KindCallback:
		if p.Presses != nil && p.Presses.Seen(dedup.CallbackKey(ev.CallbackID)) {
			p.Out.Answer(ctx, &tele.Callback{ID: ev.CallbackID}, "")
			reason = "callback"
		}
	case ev.MessageID != 0 && p.Messages != nil && p.Messages.Seen(dedup.MessageKey(ev.ChatID, ev.MessageID)):
		reason = "message"
	case ev.Kind == conversation.KindStart && p.Starts != nil && !p.Starts.Allow(ev.UserID):
		reason = "start_cooldown"
	}
	if reason == "" {
		return false
	}
	logger.Debug(ctx, "tg", "update.duplicate", slog.String("reason", reason))
	return true
}

func (p *Pipeline) deliver(ctx context.Context, ev conversation.Event, resp conversation.Response) {
	if ev.Kind == conversation.KindCallback {
		if resp.ClearInline && ev.MessageID != 0 {
			p.Out.RemoveInline(ctx, ev.ChatID, ev.MessageID)
		}
		p.Out.Answer(ctx, &tele.Callback{ID: ev.CallbackID}, resp.CallbackAnswer)
	}
	for _, m := range resp.Messages {
		opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
		if markup := m.Keyboard.Markup(); markup != nil {
			opts.ReplyMarkup = markup
		}
		p.Out.Send(ctx, m.ChatID, m.Text, opts)
	}
	if p.Alerts != nil {
		for _, text := range resp.Alerts {
			p.Alerts.Notify(ctx, text)
		}
	}
}
