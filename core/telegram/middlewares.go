package telegram

import (
	"github.com/m3rciful/boxingcrm/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain: panics are contained
// first, then every update is logged, then concurrency is bounded.
func DefaultMiddlewares(workers int) []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.Recover},
		{Name: "logger", Use: middleware.Logger},
		{Name: "limit", Use: middleware.Limit(workers)},
	}
}

// Use registers middlewares on bot in order, skipping empty entries.
func Use(bot *tele.Bot, mws []Middleware) {
	for _, mw := range mws {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}
}
