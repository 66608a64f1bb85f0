package botapp

import (
	"strconv"
	"strings"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/core/telegram"
	"github.com/m3rciful/boxingcrm/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/boxingcrm/core/telegram/helpers"
	"github.com/m3rciful/boxingcrm/crm/conversation"

	tele "gopkg.in/telebot.v4"
)

// Routes binds the bot endpoints to the pipeline.
func (p *Pipeline) Routes() []telegram.Route {
	return []telegram.Route{
		{Endpoint: "/start", Handler: p.handler("start", conversation.KindStart)},
		{Endpoint: "/menu", Handler: p.handler("menu", conversation.KindMenu)},
		{Endpoint: "/whoami", Handler: p.handler("whoami", conversation.KindWhoAmI)},
		{Endpoint: tele.OnContact, Handler: p.handler("contact", conversation.KindContact)},
		{Endpoint: tele.OnText, Handler: p.handler("text", conversation.KindText)},
		{Endpoint: tele.OnCallback, Handler: p.handler("callback", conversation.KindCallback)},
	}
}

func (p *Pipeline) handler(name string, kind conversation.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.WithHandler(nil, c, name)
		ev, ok := EventFrom(c, kind)
		if !ok {
			return nil
		}
		if err := p.Process(ctx, ev); err != nil {
			logger.Error(ctx, "tg", "handler.error", logger.Err(err))
		}
		return nil
	}
}

// EventFrom converts a telebot update. Updates without a sender are skipped.
func EventFrom(c tele.Context, kind conversation.Kind) (conversation.Event, bool) {
	user := c.Sender()
	if user == nil {
		return conversation.Event{}, false
	}
	ev := conversation.Event{
		Kind:      kind,
		UserID:    strconv.FormatInt(user.ID, 10),
		ChatID:    user.ID,
		FirstName: user.FirstName,
		Username:  user.Username,
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}

	if cb := c.Callback(); kind == conversation.KindCallback && cb != nil {
		unique, data := callbacks.Parse(cb)
		ev.CallbackID = cb.ID
		ev.Payload = unique + ":" + data
		if cb.Message != nil {
			ev.MessageID = cb.Message.ID
		}
		return ev, true
	}

	msg := c.Message()
	if msg == nil {
		return conversation.Event{}, false
	}
	ev.MessageID = msg.ID
	ev.Text = msg.Text
	switch kind {
	case conversation.KindStart:
		ev.Payload = strings.TrimSpace(msg.Payload)
	case conversation.KindContact:
		if msg.Contact == nil {
			return conversation.Event{}, false
		}
		ev.Phone = msg.Contact.PhoneNumber
	}
	return ev, true
}
