package middleware

import (
	"log/slog"

	"github.com/m3rciful/boxingcrm/core/logger"
	tghelpers "github.com/m3rciful/boxingcrm/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Limit bounds how many updates are handled at once. telebot runs each update
// in its own goroutine; extra updates wait for a free slot.
func Limit(workers int) tele.MiddlewareFunc {
	if workers <= 0 {
		workers = 1
	}
	slots := make(chan struct{}, workers)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			select {
			case slots <- struct{}{}:
			default:
				logger.Debug(tghelpers.BuildContext(nil, c), "tg", "worker.wait",
					slog.Int("workers", workers),
				)
				slots <- struct{}{}
			}
			defer func() { <-slots }()
			return next(c)
		}
	}
}
