package conversation

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/m3rciful/boxingcrm/crm/alerts"
	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/identity"
	"github.com/m3rciful/boxingcrm/crm/locale"
)

func (t *turn) onText() error {
	txt := strings.TrimSpace(t.ev.Text)
	if strings.HasPrefix(txt, "/") {
		return nil
	}
	switch t.id.Role {
	case identity.Child:
		return t.kidText(txt)
	case identity.Unregistered:
		if t.sess.Step == StepChooseLanguage {
			if lang, ok := locale.FromLabel(txt); ok {
				return t.chooseLanguage(lang)
			}
		}
		return t.askLanguage("")
	}
	return t.parentText(txt)
}

func (t *turn) parentText(txt string) error {
	switch txt {
	case t.tr(locale.BtnBack):
		return t.back()
	case t.tr(locale.BtnMainMenu):
		if err := t.clear(); err != nil {
			return err
		}
		return t.mainMenu()
	}

	switch t.sess.Step {
	case StepChooseLanguage:
		if lang, ok := locale.FromLabel(txt); ok {
			return t.chooseLanguage(lang)
		}
		return t.askLanguage("")
	case StepParentName:
		return t.saveParentName(txt)
	case StepParentPhone:
		return t.saveParentPhone(txt)
	case StepChildName:
		return t.enter(StepChildAge, fieldChildName, domain.Truncate(txt, MaxChildName))
	case StepChildAge:
		return t.saveChild(txt)
	case StepSupportAsk:
		t.alert(alerts.ParentQuestion(t.ev.UserID, txt))
		if err := t.clear(); err != nil {
			return err
		}
		return t.menuReply(t.tr(locale.SupportSent))
	case StepAfterSign:
		t.reply(t.tr(locale.SignDone), afterSignKB(t.lang))
		return nil
	case StepIdle:
		return t.parentMenu(txt)
	}
	if err := t.clear(); err != nil {
		return err
	}
	return t.mainMenu()
}

func (t *turn) back() error {
	switch t.sess.Step {
	case StepChildAge:
		return t.enter(StepChildName)
	case StepAfterSign:
		if err := t.clear(); err != nil {
			return err
		}
		t.reply(t.tr(locale.SignWhen), slotsKB())
		return nil
	}
	if err := t.clear(); err != nil {
		return err
	}
	return t.mainMenu()
}

func (t *turn) parentMenu(txt string) error {
	if lang, ok := locale.FromLabel(txt); ok {
		p := t.id.Parent
		p.Language = lang
		if err := t.tx.UpdateParent(t.ctx, p); err != nil {
			return err
		}
		t.lang = lang
		return t.mainMenu()
	}

	kids, err := t.tx.ChildrenOf(t.ctx, t.id.Parent.ID)
	if err != nil {
		return err
	}

	switch txt {
	case t.tr(locale.BtnSign), t.tr(locale.BtnPrices), t.tr(locale.BtnPay):
		if len(kids) == 0 {
			t.reply(t.tr(locale.AddChildFirst), stepKB(t.lang))
			return t.enter(StepChildName)
		}
	}

	switch txt {
	case t.tr(locale.BtnSign):
		t.reply(t.tr(locale.SignWhen), slotsKB())
	case t.tr(locale.BtnPrices):
		t.reply(t.tr(locale.PricesText), parentMenuKB(t.lang, len(kids) > 0))
	case t.tr(locale.BtnPay):
		t.reply(t.e.opts.PaymentDetails, parentMenuKB(t.lang, len(kids) > 0))
	case t.tr(locale.BtnSchedule):
		t.reply(t.scheduleText(kids), parentMenuKB(t.lang, len(kids) > 0))
	case t.tr(locale.BtnMyChildren):
		t.reply(t.childrenText(kids), parentMenuKB(t.lang, len(kids) > 0))
	case t.tr(locale.BtnCreateChild):
		return t.enter(StepChildName)
	case t.tr(locale.BtnHelp):
		return t.enter(StepSupportAsk)
	default:
		return t.mainMenu()
	}
	return nil
}

func (t *turn) saveParentName(txt string) error {
	p := t.id.Parent
	p.FullName = domain.Truncate(txt, MaxParentName)
	if err := t.tx.UpdateParent(t.ctx, p); err != nil {
		return err
	}
	return t.enter(StepParentPhone)
}

func (t *turn) saveParentPhone(raw string) error {
	if !domain.ValidPhone(raw) {
		t.reply(t.tr(locale.AskPhoneRetry), phoneKB(t.lang))
		return nil
	}
	p := t.id.Parent
	p.Phone = domain.NormalizePhone(raw)
	if err := t.tx.UpdateParent(t.ctx, p); err != nil {
		return err
	}
	if err := t.clear(); err != nil {
		return err
	}
	return t.mainMenu()
}

// saveChild creates the child collected so far. An identical submission
// inside the duplicate window reuses the existing record.
func (t *turn) saveChild(txt string) error {
	age, err := strconv.Atoi(txt)
	if err != nil || age < MinAge || age > MaxAge {
		t.reply(t.tr(locale.AgeRetry), stepKB(t.lang))
		return nil
	}
	name := t.sess.Field(fieldChildName)
	parentID := t.id.Parent.ID

	since := t.now().Add(-t.e.opts.DuplicateWindow)
	child, err := t.tx.RecentChild(t.ctx, parentID, name, age, since)
	if errors.Is(err, domain.ErrNotFound) {
		child = &domain.Child{ParentID: parentID, Name: name, Age: age}
		err = domain.CreateChild(t.ctx, t.tx, t.e.opts.Tokens, child)
	}
	if err != nil {
		return err
	}

	link := fmt.Sprintf("https://t.me/%s?start=%d", t.e.opts.BotUsername, child.ID)
	t.reply(t.trf(locale.ChildSaved, html.EscapeString(child.Name), child.ID, link), childAddedKB(t.lang))
	return t.clear()
}

func (t *turn) onContact() error {
	switch {
	case t.id.Role == identity.Child && t.sess.Step == StepKidPhone:
		return t.saveKidPhone(t.ev.Phone)
	case t.id.Role == identity.Parent && t.sess.Step == StepParentPhone:
		return t.saveParentPhone(t.ev.Phone)
	case t.id.Role == identity.Child:
		t.reply(t.tr(locale.MainMenu), kidMenuKB(t.lang))
		return nil
	case t.id.Role == identity.Parent:
		return t.mainMenu()
	}
	return t.askLanguage("")
}

func (t *turn) onCallback() error {
	slot, ok := strings.CutPrefix(t.ev.Payload, SignUnique+":")
	if !ok || !validSlot(slot) {
		return nil
	}
	switch t.id.Role {
	case identity.Child:
		return nil
	case identity.Unregistered:
		t.resp.CallbackAnswer = t.tr(locale.StartFirst)
		return nil
	}

	kids, err := t.tx.ChildrenOf(t.ctx, t.id.Parent.ID)
	if err != nil {
		return err
	}
	if len(kids) == 0 {
		t.resp.CallbackAnswer = t.tr(locale.AddChildFirst)
		return nil
	}
	appt := &domain.Appointment{ChildID: kids[0].ID, Slot: slot, Location: domain.DefaultLocation, Status: "new"}
	if err := t.tx.CreateAppointment(t.ctx, appt); err != nil {
		return err
	}
	t.resp.ClearInline = true
	t.resp.CallbackAnswer = t.tr(locale.CallbackOK)
	return t.enter(StepAfterSign)
}

// mainMenu greets the parent and shows the menu matching whether a child exists.
func (t *turn) mainMenu() error {
	text := t.tr(locale.MainMenu)
	if name := domain.FirstName(t.id.Parent.FullName); name != "" {
		text = t.trf(locale.Greeting, html.EscapeString(name))
	}
	return t.menuReply(text)
}

func (t *turn) menuReply(text string) error {
	kids, err := t.tx.ChildrenOf(t.ctx, t.id.Parent.ID)
	if err != nil {
		return err
	}
	t.reply(text, parentMenuKB(t.lang, len(kids) > 0))
	return nil
}

func (t *turn) scheduleText(kids []domain.Child) string {
	lines := []string{t.tr(locale.ScheduleText)}
	if len(kids) > 0 {
		lines = append(lines, "", t.tr(locale.KidsScheduleTitle))
	}
	for _, c := range kids {
		sched := strings.TrimSpace(c.ScheduleText)
		status := t.tr(locale.SchedNotSet)
		switch {
		case !c.Paid:
			status = t.tr(locale.SchedWaitPayment)
		case sched != "":
			status = html.EscapeString(sched)
		}
		lines = append(lines, t.trf(locale.ScheduleLine, html.EscapeString(c.Name), status))
	}
	return strings.Join(lines, "\n")
}

func (t *turn) childrenText(kids []domain.Child) string {
	if len(kids) == 0 {
		return t.tr(locale.NoChildren)
	}
	lines := make([]string, 0, len(kids))
	for _, c := range kids {
		lines = append(lines, t.trf(locale.ChildLine, html.EscapeString(c.Name), c.Age, c.ID))
	}
	return strings.Join(lines, "\n")
}
