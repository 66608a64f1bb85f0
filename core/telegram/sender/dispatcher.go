package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// API is the subset of *tele.Bot used for outbound calls.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Dispatcher performs outbound calls synchronously. A timeout-class failure is
// retried once with the same parameters; every failure is logged and reported
// as false, never returned as an error.
type Dispatcher struct {
	api  API
	sent atomic.Uint64
	errs atomic.Uint64
}

// NewDispatcher wraps api.
func NewDispatcher(api API) *Dispatcher {
	return &Dispatcher{api: api}
}

// Send delivers text to chatID and reports whether it was accepted by the API.
func (d *Dispatcher) Send(ctx context.Context, chatID int64, text string, opts *tele.SendOptions) bool {
	ok := d.do(ctx, "send", chatID, func() error {
		var err error
		if opts != nil {
			_, err = d.api.Send(tele.ChatID(chatID), text, opts)
		} else {
			_, err = d.api.Send(tele.ChatID(chatID), text)
		}
		return err
	})
	if ok {
		d.sent.Add(1)
	}
	return ok
}

// RemoveInline drops the inline keyboard of a message. Failures are ignored.
func (d *Dispatcher) RemoveInline(ctx context.Context, chatID int64, messageID int) bool {
	msg := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	return d.do(ctx, "edit_markup", chatID, func() error {
		_, err := d.api.EditReplyMarkup(msg, nil)
		return err
	})
}

// Answer acknowledges a callback so the client stops its spinner.
func (d *Dispatcher) Answer(ctx context.Context, cb *tele.Callback, text string) bool {
	if cb == nil {
		return false
	}
	return d.do(ctx, "answer_callback", 0, func() error {
		return d.api.Respond(cb, &tele.CallbackResponse{Text: text})
	})
}

// Sent returns the number of delivered messages.
func (d *Dispatcher) Sent() uint64 { return d.sent.Load() }

// ErrorCount returns the number of failed calls.
func (d *Dispatcher) ErrorCount() uint64 { return d.errs.Load() }

func (d *Dispatcher) do(ctx context.Context, action string, chatID int64, run func() error) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		d.fail(ctx, action, chatID, err, 0, 0)
		return false
	}

	start := time.Now()
	err := run()
	attempts := 1
	if err != nil && netutil.IsTimeout(err) && ctx.Err() == nil {
		logger.Debug(ctx, "tg.sender", "send.retry",
			slog.String("op", action),
			slog.Int64("chat_id", chatID),
			slog.String("err", sanitizeErrorMessage(err)),
		)
		err = run()
		attempts = 2
	}
	if err != nil {
		d.fail(ctx, action, chatID, err, attempts, time.Since(start))
		return false
	}
	logger.Debug(ctx, "tg.sender", "send.ok",
		slog.String("op", action),
		slog.Int64("chat_id", chatID),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return true
}

func (d *Dispatcher) fail(ctx context.Context, action string, chatID int64, err error, attempts int, elapsed time.Duration) {
	d.errs.Add(1)
	logger.Warn(ctx, "tg.sender", "send.fail",
		slog.String("op", action),
		slog.Int64("chat_id", chatID),
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("error_kind", classifyError(err)),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.RoundMS(elapsed)),
	)
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	if netutil.IsTimeout(err) {
		return "timeout"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}
	if netutil.IsConnect(err) {
		return "dial"
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}
	switch status := httpStatusFromError(err); {
	case status == http.StatusTooManyRequests:
		return "flood"
	case status == http.StatusForbidden:
		return "blocked"
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// sanitizeErrorMessage keeps bot tokens embedded in request URLs out of logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func httpStatusFromError(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}
	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}

	// telebot formats unknown API errors as "telegram: <description> (<code>)"
	msg := err.Error()
	lo, hi := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if lo >= 0 && hi > lo+1 {
		if code, convErr := strconv.Atoi(strings.TrimSpace(msg[lo+1 : hi])); convErr == nil {
			return code
		}
	}
	return 0
}
