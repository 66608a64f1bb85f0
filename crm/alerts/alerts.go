// Package alerts formats and fans out admin notifications.
package alerts

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/crm/domain"

	tele "gopkg.in/telebot.v4"
)

// Sender delivers one message and reports success.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, opts *tele.SendOptions) bool
}

// Notifier sends texts to every admin chat.
type Notifier struct {
	admins []int64
	sender Sender
}

// NewNotifier returns a notifier for admins.
func NewNotifier(admins []int64, sender Sender) *Notifier {
	return &Notifier{admins: append([]int64(nil), admins...), sender: sender}
}

// Admins returns the configured admin chat ids.
func (n *Notifier) Admins() []int64 { return append([]int64(nil), n.admins...) }

// Notify sends text to each admin and returns how many accepted it. A failed
// admin does not stop the others.
func (n *Notifier) Notify(ctx context.Context, text string) int {
	if n == nil || len(n.admins) == 0 || strings.TrimSpace(text) == "" {
		return 0
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	sent := 0
	for _, id := range n.admins {
		if n.sender.Send(ctx, id, text, opts) {
			sent++
		}
	}
	logger.Info(ctx, "alerts", "alert.sent",
		slog.Int("audience", len(n.admins)),
		slog.Int("sent", sent),
		slog.Int("failed", len(n.admins)-sent),
	)
	return sent
}

// ParentQuestion formats a support question from a parent.
func ParentQuestion(userID, question string) string {
	return fmt.Sprintf("🆘 Вопрос от родителя tg=%s:\n\n%s", html.EscapeString(userID), html.EscapeString(question))
}

// ChildQuestion formats a support question from a linked child.
func ChildQuestion(child domain.Child, username, userID, question string) string {
	name := orDash(child.Name)
	phone := orDash(child.Phone)
	var tgLine string
	if u := strings.TrimPrefix(strings.TrimSpace(username), "@"); u != "" {
		tgLine = fmt.Sprintf("Telegram: @%s (id=%s)", html.EscapeString(u), html.EscapeString(userID))
	} else {
		tgLine = fmt.Sprintf(`Telegram: <a href="tg://user?id=%s">профиль</a> (id=%s)`,
			html.EscapeString(userID), html.EscapeString(userID))
	}
	return fmt.Sprintf("🧒 <b>Вопрос от ребёнка</b>\nИмя: %s\nТелефон: %s\n%s\n\nВопрос: %s",
		html.EscapeString(name), html.EscapeString(phone), tgLine, html.EscapeString(question))
}

// NewLead formats a website lead.
func NewLead(l domain.Lead) string {
	var b strings.Builder
	b.WriteString("🔥 Новая заявка с сайта\n\n")
	fmt.Fprintf(&b, "Имя: %s\nТелефон: %s\n", html.EscapeString(l.Name), html.EscapeString(l.Phone))
	if l.Age != "" {
		fmt.Fprintf(&b, "Возраст: %s\n", html.EscapeString(l.Age))
	}
	if l.TgUsername != "" {
		fmt.Fprintf(&b, "Telegram: @%s\n", html.EscapeString(l.TgUsername))
	}
	if l.Comment != "" {
		fmt.Fprintf(&b, "Комментарий: %s\n", html.EscapeString(l.Comment))
	}
	return b.String()
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "—"
	}
	return s
}
