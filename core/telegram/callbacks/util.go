package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits telebot's "\f<unique>|<payload>" callback encoding. Data that
// was already unpacked by a registered button handler is returned as the payload.
func Parse(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}
