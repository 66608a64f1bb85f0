package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/boxingcrm/core/logger"
	tghelpers "github.com/m3rciful/boxingcrm/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Recover catches handler panics, logs them with the stack and drops the update.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				ctx := tghelpers.BuildContext(nil, c)
				logger.Error(ctx, "tg", "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = nil
			}
		}()
		return next(c)
	}
}
