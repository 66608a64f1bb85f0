// Package app assembles the bot, the HTTP API and their storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/boxingcrm/core/bootstrap"
	"github.com/m3rciful/boxingcrm/core/buildinfo"
	"github.com/m3rciful/boxingcrm/core/cmd"
	coreconfig "github.com/m3rciful/boxingcrm/core/config"
	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/core/telegram"
	"github.com/m3rciful/boxingcrm/core/telegram/dedup"
	"github.com/m3rciful/boxingcrm/core/telegram/sender"
	"github.com/m3rciful/boxingcrm/core/telegram/state"
	"github.com/m3rciful/boxingcrm/crm/alerts"
	"github.com/m3rciful/boxingcrm/crm/botapp"
	"github.com/m3rciful/boxingcrm/crm/broadcast"
	"github.com/m3rciful/boxingcrm/crm/conversation"
	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/httpapi"
	"github.com/m3rciful/boxingcrm/crm/leads"
	"github.com/m3rciful/boxingcrm/crm/storage/memory"
	"github.com/m3rciful/boxingcrm/crm/storage/postgres"

	tele "gopkg.in/telebot.v4"
)

// Options override infrastructure constructors.
type Options struct {
	NewBot     func(*coreconfig.Config) (*tele.Bot, error)
	LoggerInit func(*coreconfig.Config) error
}

// App is the running process.
type App struct {
	cfg      *coreconfig.Config
	store    domain.Store
	bot      *tele.Bot
	out      *sender.Dispatcher
	pipeline *botapp.Pipeline
	janitor  *botapp.Janitor
	http     *httpapi.Server
}

var _ cmd.App = (*App)(nil)

// Bootstrap is the cmd.Options bootstrap hook.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config) (cmd.App, error) {
	return New(ctx, cfg, Options{})
}

// New wires every component from cfg.
func New(ctx context.Context, cfg *coreconfig.Config, opts Options) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg, LoggerInit: opts.LoggerInit})
	if err != nil {
		return nil, err
	}

	var store domain.Store
	if infra.DB != nil {
		store = postgres.New(infra.DB)
	} else {
		store = memory.New(nil)
	}

	newBot := opts.NewBot
	if newBot == nil {
		newBot = telegram.NewBot
	}
	bot, err := newBot(cfg)
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	out := sender.NewDispatcher(bot)
	notifier := alerts.NewNotifier(cfg.Admins.IDs(), out)
	sessions := state.NewMemoryStore(nil)
	engine := conversation.NewEngine(store, sessions, conversation.Options{
		DefaultLang:    cfg.Bot.DefaultLang,
		BotUsername:    cfg.Bot.Username,
		PaymentDetails: cfg.Bot.PaymentDetails,
	})

	messages := dedup.NewLedger(cfg.DedupTTL(), nil)
	presses := dedup.NewLedger(cfg.DedupTTL(), nil)
	starts := dedup.NewCooldown(cfg.StartCooldown(), nil)
	pipeline := &botapp.Pipeline{
		Engine:   engine,
		Sessions: sessions,
		Messages: messages,
		Presses:  presses,
		Starts:   starts,
		Out:      out,
		Alerts:   notifier,
	}

	coordinator := broadcast.New(store, out, broadcast.Options{
		PageSize:     cfg.Broadcast.PageSize,
		SuccessDelay: time.Duration(cfg.Broadcast.SuccessDelayMS) * time.Millisecond,
		FailureDelay: time.Duration(cfg.Broadcast.FailureDelayMS) * time.Millisecond,
	})
	api := httpapi.New(httpapi.Options{
		Listen:         cfg.HTTP.Listen,
		AdminKey:       cfg.HTTP.AdminKey,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Version:        buildinfo.Version,
	}, leads.New(store, notifier, 0, nil), coordinator)

	logger.Component("app").Info("components wired",
		slog.String("event", "app.wire"),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("admins", len(notifier.Admins())),
		slog.Int("workers", cfg.Bot.Workers),
	)
	return &App{
		cfg:      cfg,
		store:    store,
		bot:      bot,
		out:      out,
		pipeline: pipeline,
		janitor: &botapp.Janitor{
			Ledgers:     []*dedup.Ledger{messages, presses},
			Cooldown:    starts,
			Sessions:    sessions,
			SessionIdle: cfg.SessionIdle(),
		},
		http: api,
	}, nil
}

// Run serves the HTTP API and the bot until ctx is done or one of them fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.janitor.Run(ctx)
	}()
	var httpErr error
	go func() {
		defer wg.Done()
		if httpErr = a.http.Run(ctx); httpErr != nil {
			logger.HTTP.Error("http server failed", slog.String("event", "http.fail"), logger.Err(httpErr))
			cancel()
		}
	}()

	botErr := telegram.Run(ctx, telegram.RunOptions{
		Config:      a.cfg,
		Bot:         a.bot,
		Middlewares: telegram.DefaultMiddlewares(a.cfg.Bot.Workers),
		Routes:      a.pipeline.Routes(),
		OnStop: func(ctx context.Context, _ *tele.Bot) error {
			logger.Info(ctx, "tg", "sender.summary",
				slog.Uint64("sent", a.out.Sent()),
				slog.Uint64("errors", a.out.ErrorCount()),
			)
			return nil
		},
	})
	cancel()
	wg.Wait()

	return errors.Join(botErr, httpErr, a.Close())
}

// Close releases storage; the postgres store owns the database pool.
func (a *App) Close() error {
	return a.store.Close()
}
