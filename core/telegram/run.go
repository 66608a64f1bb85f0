package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/boxingcrm/core/config"
	"github.com/m3rciful/boxingcrm/core/logger"
	tghelpers "github.com/m3rciful/boxingcrm/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of Run.
type RunOptions struct {
	Config *coreconfig.Config
	// Bot is built from Config when nil.
	Bot *tele.Bot

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, bot *tele.Bot) error
	OnStop  func(ctx context.Context, bot *tele.Bot) error
}

// NewBot builds a bot with the configured poller and a client whose timeout
// bounds every API call.
func NewBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	// The bot's client also carries getUpdates, which holds the connection
	// for the long-poll wait.
	clientTimeout := time.Duration(cfg.Telegram.SendTimeoutSeconds) * time.Second
	if cfg.Telegram.RunMode != coreconfig.RunModeWebhook {
		clientTimeout += pollTimeout(cfg)
	}
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  BuildPoller(cfg),
		Client:  BuildHTTPClient(clientTimeout),
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.TG.Debug("bot built",
		slog.String("event", "bot.build"),
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return bot, nil
}

// Run wires middlewares and routes and blocks until ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config

	bot := opts.Bot
	if bot == nil {
		var err error
		if bot, err = NewBot(cfg); err != nil {
			return err
		}
	}

	switch p := bot.Poller.(type) {
	case *tele.Webhook:
		logger.TG.Info("webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *SupervisedPoller:
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", int(p.Timeout/time.Second)),
		)
		if !opts.DisableWebhookCleanup {
			deleteWebhook(bot)
		}
	}

	Use(bot, opts.Middlewares)
	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, bot); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), bot); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func deleteWebhook(bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.Warn("failed to delete webhook",
			slog.String("event", "delete_webhook"),
			slog.String("mode", "polling"),
			slog.String("err", redactToken(err.Error())),
		)
		return
	}
	logger.TG.Info("webhook deleted",
		slog.String("event", "delete_webhook"),
		slog.String("mode", "polling"),
	)
}

// logHandlerError is the last stop for errors returned by handlers: they are
// logged and dropped so the update loop keeps running.
func logHandlerError(err error, c tele.Context) {
	if err == nil {
		return
	}
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(nil, c)
	}
	logger.Error(ctx, "tg", "handler.error", slog.String("err", redactToken(err.Error())))
}
