package middleware

import (
	"log/slog"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/boxingcrm/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Logger stores the per-update context and logs one receipt line at debug level.
func Logger(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(nil, c)

		upd := c.Update()
		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil {
			attrs = append(attrs,
				slog.String("username", logger.SanitizeLimit(user.Username, 64)),
				slog.String("lang", user.LanguageCode),
			)
		}
		switch {
		case upd.Callback != nil:
			unique, payload := callbacks.Parse(upd.Callback)
			attrs = append(attrs,
				slog.String("kind", "callback"),
				slog.String("cb_key", logger.SanitizeLimit(unique, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		case upd.Message != nil:
			kind := "text"
			if upd.Message.Contact != nil {
				kind = "contact"
			}
			attrs = append(attrs,
				slog.String("kind", kind),
				slog.String("payload", logger.SanitizeLimit(upd.Message.Text, 128)),
			)
		}
		logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		return next(c)
	}
}
