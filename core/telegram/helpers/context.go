package helpers

import (
	"context"

	"github.com/m3rciful/boxingcrm/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext derives a context from parent carrying rid and update metadata,
// and caches it on c so every handler of one update logs the same rid.
func BuildContext(parent context.Context, c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	if parent == nil {
		parent = context.Background()
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithRID(parent, logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches the stored context with the handler name.
func WithHandler(parent context.Context, c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(parent, c), handler)
	StoreContext(c, ctx)
	return ctx
}
