// Package conversation is the per-user state machine of the bot. Handle
// resolves the caller, applies one event inside a storage transaction and
// returns what has to be delivered; nothing is sent from here.
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"github.com/m3rciful/boxingcrm/core/telegram/keyboard"
	"github.com/m3rciful/boxingcrm/core/telegram/state"
	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/identity"
	"github.com/m3rciful/boxingcrm/crm/locale"
)

// Input limits.
const (
	MaxParentName = 24
	MaxChildName  = 80
	MaxRefLength  = 64
	MinAge        = 5
	MaxAge        = 25
)

// DefaultDuplicateWindow is how long an identical child submission reuses
// the first record.
const DefaultDuplicateWindow = 90 * time.Second

// Options configure an Engine.
type Options struct {
	DefaultLang     string
	BotUsername     string
	PaymentDetails  string
	DuplicateWindow time.Duration
	Now             func() time.Time
	Tokens          domain.TokenFunc
}

// Engine drives conversations.
type Engine struct {
	store    domain.Store
	sessions state.Store
	resolver *identity.Resolver
	opts     Options
}

// NewEngine wires an engine over the domain store and the session store.
func NewEngine(store domain.Store, sessions state.Store, opts Options) *Engine {
	if opts.DuplicateWindow <= 0 {
		opts.DuplicateWindow = DefaultDuplicateWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tokens == nil {
		opts.Tokens = domain.NewToken
	}
	if opts.BotUsername == "" {
		opts.BotUsername = "boxing_school_bot"
	}
	return &Engine{
		store:    store,
		sessions: sessions,
		resolver: identity.NewResolver(opts.DefaultLang),
		opts:     opts,
	}
}

// Handle processes ev. Storage changes and the session update happen only
// when the whole event succeeds; on error both are left as they were.
func (e *Engine) Handle(ctx context.Context, ev Event) (Response, error) {
	current := e.sessions.Get(ev.UserID)
	var t *turn
	err := e.store.InTx(ctx, func(tx domain.Tx) error {
		id, err := e.resolver.Resolve(ctx, tx, ev.UserID)
		if err != nil {
			return err
		}
		t = &turn{e: e, ctx: ctx, tx: tx, ev: ev, id: id, lang: id.Lang, sess: current.Clone()}
		return t.dispatch()
	})
	if err != nil {
		return Response{}, fmt.Errorf("handle %s: %w", ev.Kind, err)
	}

	if t.touched {
		if t.sess.Idle() && len(t.sess.Fields) == 0 {
			e.sessions.Clear(ev.UserID)
		} else {
			e.sessions.Save(ev.UserID, t.sess)
		}
	}
	t.resp.Role = t.id.Role.String()
	t.resp.Step = t.sess.Step
	return t.resp, nil
}

// turn is the working state of one Handle call.
type turn struct {
	e       *Engine
	ctx     context.Context
	tx      domain.Tx
	ev      Event
	id      identity.Identity
	lang    string
	sess    state.Session
	touched bool
	resp    Response
	fsm     *fsm.FSM
}

func (t *turn) dispatch() error {
	switch t.ev.Kind {
	case KindStart:
		return t.onStart()
	case KindMenu:
		return t.onMenu()
	case KindWhoAmI:
		return t.onWhoAmI()
	case KindContact:
		return t.onContact()
	case KindCallback:
		return t.onCallback()
	default:
		return t.onText()
	}
}

func (t *turn) reply(text string, kb *keyboard.Layout) {
	t.resp.Messages = append(t.resp.Messages, Message{ChatID: t.ev.ChatID, Text: text, Keyboard: kb})
}

func (t *turn) notify(chatID int64, text string) {
	t.resp.Messages = append(t.resp.Messages, Message{ChatID: chatID, Text: text})
}

func (t *turn) alert(text string) {
	t.resp.Alerts = append(t.resp.Alerts, text)
}

func (t *turn) tr(key string) string { return locale.T(t.lang, key) }

func (t *turn) trf(key string, args ...any) string { return locale.F(t.lang, key, args...) }

func (t *turn) now() time.Time { return t.e.opts.Now() }
