package conversation

import (
	"strings"

	"github.com/m3rciful/boxingcrm/crm/alerts"
	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/locale"
)

func (t *turn) kidText(txt string) error {
	kid := t.id.Child
	switch txt {
	case t.tr(locale.BtnKidSchedule):
		text := t.tr(locale.KidTrial)
		if kid.Paid {
			text = strings.TrimSpace(kid.ScheduleText)
			if text == "" {
				text = t.tr(locale.KidScheduleEmpty)
			}
		}
		t.reply(text, kidMenuKB(t.lang))
		return nil
	case t.tr(locale.BtnKidHelp):
		return t.enter(StepKidSupport)
	case t.tr(locale.BtnBack), t.tr(locale.BtnMainMenu):
		if err := t.clear(); err != nil {
			return err
		}
		t.reply(t.tr(locale.MainMenu), kidMenuKB(t.lang))
		return nil
	}

	switch t.sess.Step {
	case StepKidPhone:
		return t.saveKidPhone(txt)
	case StepKidSupport:
		t.alert(alerts.ChildQuestion(*kid, t.ev.Username, t.ev.UserID, txt))
		if err := t.clear(); err != nil {
			return err
		}
		t.reply(t.tr(locale.SupportSent), kidMenuKB(t.lang))
		return nil
	case StepIdle:
	default:
		if err := t.clear(); err != nil {
			return err
		}
	}
	t.reply(t.tr(locale.MainMenu), kidMenuKB(t.lang))
	return nil
}

func (t *turn) saveKidPhone(raw string) error {
	if !domain.ValidPhone(raw) {
		t.reply(t.tr(locale.AskPhoneRetry), kidPhoneKB(t.lang))
		return nil
	}
	if err := t.tx.SetChildPhone(t.ctx, t.id.Child.ID, domain.NormalizePhone(raw)); err != nil {
		return err
	}
	if err := t.clear(); err != nil {
		return err
	}
	t.reply(locale.Blank, kidMenuKB(t.lang))
	return nil
}
