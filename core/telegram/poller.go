package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/boxingcrm/core/config"
	"github.com/m3rciful/boxingcrm/core/logger"

	tele "gopkg.in/telebot.v4"
)

// AllowedUpdates lists the update kinds the bot subscribes to.
var AllowedUpdates = []string{"message", "callback_query"}

// FetchFunc returns updates starting at offset.
type FetchFunc func(ctx context.Context, offset int) ([]tele.Update, error)

// SupervisedPoller is a long poller that survives transport failures: every
// failed getUpdates is logged and followed by a pause chosen by Backoff.
type SupervisedPoller struct {
	Timeout time.Duration
	Backoff BackoffPolicy
	// Fetch overrides the API call; nil calls getUpdates through the bot.
	Fetch FetchFunc
	// Sleep waits for d or until stop is closed; it reports false when stopped.
	Sleep func(d time.Duration, stop <-chan struct{}) bool

	offset int
}

// BuildPoller returns the configured poller: a webhook listener or a supervised long poller.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
			AllowedUpdates: AllowedUpdates,
		}
	}
	return &SupervisedPoller{
		Timeout: pollTimeout(cfg),
		Backoff: DefaultBackoff(),
	}
}

func pollTimeout(cfg *coreconfig.Config) time.Duration {
	timeout := time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return timeout
}

// Poll implements tele.Poller.
func (p *SupervisedPoller) Poll(b *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	fetch := p.Fetch
	if fetch == nil {
		fetch = p.rawFetch(b)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepOrStop
	}

	failures := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		updates, err := fetch(ctx, p.offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			delay := p.Backoff.Delay(err, failures)
			logger.TG.Warn("poll failed",
				slog.String("event", "poll.fail"),
				slog.String("err", redactToken(err.Error())),
				slog.Int("attempts", failures),
				slog.Duration("backoff", delay),
			)
			if !sleep(delay, stop) {
				return
			}
			continue
		}
		if failures > 0 {
			logger.TG.Info("poll recovered",
				slog.String("event", "poll.recovered"),
				slog.Int("attempts", failures),
			)
			failures = 0
		}

		for _, upd := range updates {
			if upd.ID >= p.offset {
				p.offset = upd.ID + 1
			}
			select {
			case dest <- upd:
			case <-stop:
				return
			}
		}
	}
}

// Offset returns the next update id to request.
func (p *SupervisedPoller) Offset() int { return p.offset }

// rawFetch issues getUpdates through the bot's client. Transport errors come
// back wrapped, so the backoff still classifies them.
func (p *SupervisedPoller) rawFetch(b *tele.Bot) FetchFunc {
	allowed, _ := json.Marshal(AllowedUpdates)
	return func(ctx context.Context, offset int) ([]tele.Update, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := b.Raw("getUpdates", map[string]string{
			"offset":          strconv.Itoa(offset),
			"timeout":         strconv.Itoa(int(p.Timeout / time.Second)),
			"allowed_updates": string(allowed),
		})
		if err != nil {
			return nil, err
		}
		var resp struct {
			Result []tele.Update `json:"result"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("getUpdates: decode: %w", err)
		}
		return resp.Result, nil
	}
}

func sleepOrStop(d time.Duration, stop <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}
