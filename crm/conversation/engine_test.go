package conversation

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/boxingcrm/core/telegram/state"
	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/locale"
	"github.com/m3rciful/boxingcrm/crm/storage/memory"
)

type harness struct {
	t        *testing.T
	now      time.Time
	store    *memory.Store
	sessions *state.MemoryStore
	eng      *Engine
}

func newHarness(t *testing.T, tokens domain.TokenFunc) *harness {
	t.Helper()
	h := &harness{t: t, now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }
	h.store = memory.New(clock)
	h.sessions = state.NewMemoryStore(clock)
	h.eng = NewEngine(h.store, h.sessions, Options{
		DefaultLang:    locale.RU,
		BotUsername:    "box_bot",
		PaymentDetails: "Карта 8600 0000 0000 0000",
		Now:            clock,
		Tokens:         tokens,
	})
	return h
}

func (h *harness) handle(ev Event) Response {
	h.t.Helper()
	if ev.ChatID == 0 {
		ev.ChatID = 777
	}
	resp, err := h.eng.Handle(context.Background(), ev)
	if err != nil {
		h.t.Fatalf("handle %s %q: %v", ev.Kind, ev.Text, err)
	}
	return resp
}

func (h *harness) text(user, txt string) Response {
	return h.handle(Event{Kind: KindText, UserID: user, Text: txt})
}

func (h *harness) start(user, ref string) Response {
	return h.handle(Event{Kind: KindStart, UserID: user, Payload: ref})
}

func last(t *testing.T, resp Response) Message {
	t.Helper()
	if len(resp.Messages) == 0 {
		t.Fatalf("no messages in response %+v", resp)
	}
	return resp.Messages[len(resp.Messages)-1]
}

func ru(key string) string { return locale.T(locale.RU, key) }

// register walks a new user through the parent registration.
func (h *harness) register(user, name, phone string) {
	h.t.Helper()
	h.start(user, "")
	h.text(user, locale.LabelRussian)
	h.text(user, name)
	resp := h.handle(Event{Kind: KindContact, UserID: user, Phone: phone})
	if resp.Step != StepIdle {
		h.t.Fatalf("registration of %s ended in step %q", user, resp.Step)
	}
}

func (h *harness) addChild(user, name, age string) domain.Child {
	h.t.Helper()
	h.text(user, ru(locale.BtnCreateChild))
	h.text(user, name)
	h.text(user, age)
	kids := h.store.Children()
	if len(kids) == 0 {
		h.t.Fatalf("no child stored")
	}
	return kids[len(kids)-1]
}

func TestParentRegistration(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.start("100", "")
	if msg := last(t, resp); msg.Text != locale.ChooseLang || !msg.Keyboard.Has(locale.LabelUzbek) {
		t.Fatalf("start reply = %+v", msg)
	}
	if resp.Step != StepChooseLanguage || resp.Role != "unregistered" {
		t.Fatalf("after start role=%s step=%s", resp.Role, resp.Step)
	}

	resp = h.text("100", locale.LabelRussian)
	if last(t, resp).Text != ru(locale.AskParentName) || resp.Step != StepParentName {
		t.Fatalf("language reply = %+v step=%s", last(t, resp), resp.Step)
	}

	resp = h.text("100", "Ivan Petrov")
	if last(t, resp).Text != ru(locale.AskParentPhone) {
		t.Fatalf("name reply = %q", last(t, resp).Text)
	}

	resp = h.handle(Event{Kind: KindContact, UserID: "100", Phone: "+998901234567"})
	msg := last(t, resp)
	if msg.Text != "Привет, Ivan!" {
		t.Fatalf("menu text = %q", msg.Text)
	}
	if !msg.Keyboard.Has(ru(locale.BtnCreateChild)) || msg.Keyboard.Has(ru(locale.BtnSign)) {
		t.Fatalf("menu keyboard = %v", msg.Keyboard.Labels())
	}
	if resp.Step != StepIdle || resp.Role != "parent" {
		t.Fatalf("role=%s step=%s", resp.Role, resp.Step)
	}

	parents := h.store.Parents()
	if len(parents) != 1 {
		t.Fatalf("parents = %d", len(parents))
	}
	p := parents[0]
	if p.Language != "ru" || p.FullName != "Ivan Petrov" || p.Phone != "998901234567" || p.TgID != "100" {
		t.Fatalf("parent = %+v", p)
	}
	if !h.sessions.Get("100").Idle() {
		t.Fatalf("session not cleared")
	}
}

func TestNameTruncatedAndPhoneValidated(t *testing.T) {
	h := newHarness(t, nil)
	h.start("100", "")
	h.text("100", locale.LabelRussian)
	h.text("100", strings.Repeat("Я", 40))

	resp := h.text("100", "12ab")
	if last(t, resp).Text != ru(locale.AskPhoneRetry) || resp.Step != StepParentPhone {
		t.Fatalf("bad phone reply = %q step=%s", last(t, resp).Text, resp.Step)
	}
	h.text("100", "+998 (90) 123-45-67")
	p := h.store.Parents()[0]
	if n := len([]rune(p.FullName)); n != MaxParentName {
		t.Fatalf("name runes = %d", n)
	}
	if p.Phone != "998901234567" {
		t.Fatalf("phone = %q", p.Phone)
	}
}

func TestUnregisteredTextAsksLanguage(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.text("5", "hello")
	if last(t, resp).Text != locale.ChooseLang {
		t.Fatalf("reply = %q", last(t, resp).Text)
	}
	if len(h.store.Parents()) != 0 {
		t.Fatalf("parent created before language choice")
	}
	resp = h.text("5", "/unknown")
	if len(resp.Messages) != 0 {
		t.Fatalf("slash text answered: %+v", resp.Messages)
	}
}

func TestSignWithoutChildAsksForChild(t *testing.T) {
	h := newHarness(t, nil)
	h.register("100", "Ivan", "998901234567")

	resp := h.text("100", ru(locale.BtnSign))
	if len(resp.Messages) != 2 || resp.Messages[0].Text != ru(locale.AddChildFirst) {
		t.Fatalf("sign reply = %+v", resp.Messages)
	}
	if last(t, resp).Text != ru(locale.AskChildName) || resp.Step != StepChildName {
		t.Fatalf("step = %s", resp.Step)
	}
}

func TestChildCreationAndDuplicateWindow(t *testing.T) {
	h := newHarness(t, nil)
	h.register("100", "Ivan", "998901234567")

	h.text("100", ru(locale.BtnCreateChild))
	h.text("100", "Ali")
	resp := h.text("100", "abc")
	if last(t, resp).Text != ru(locale.AgeRetry) || resp.Step != StepChildAge {
		t.Fatalf("bad age reply = %q", last(t, resp).Text)
	}
	resp = h.text("100", "3")
	if last(t, resp).Text != ru(locale.AgeRetry) {
		t.Fatalf("age below range accepted")
	}
	resp = h.text("100", "10")
	kids := h.store.Children()
	if len(kids) != 1 {
		t.Fatalf("children = %d", len(kids))
	}
	child := kids[0]
	if child.Name != "Ali" || child.Age != 10 || len(child.Token) != 8 {
		t.Fatalf("child = %+v", child)
	}
	msg := last(t, resp)
	if !strings.Contains(msg.Text, "https://t.me/box_bot?start=") || !msg.Keyboard.Has(ru(locale.BtnSign)) {
		t.Fatalf("saved reply = %+v", msg)
	}

	// same submission 30s later reuses the record
	h.now = h.now.Add(30 * time.Second)
	h.addChild("100", "Ali", "10")
	if n := len(h.store.Children()); n != 1 {
		t.Fatalf("children after duplicate = %d", n)
	}

	h.now = h.now.Add(2 * time.Minute)
	h.addChild("100", "Ali", "10")
	if n := len(h.store.Children()); n != 2 {
		t.Fatalf("children after window = %d", n)
	}
}

func TestMenuWithChildAndBooking(t *testing.T) {
	h := newHarness(t, nil)
	h.register("100", "Ivan", "998901234567")
	h.addChild("100", "Ali", "10")

	resp := h.text("100", ru(locale.BtnMainMenu))
	if kb := last(t, resp).Keyboard; !kb.Has(ru(locale.BtnSign)) || !kb.Has(ru(locale.BtnPay)) {
		t.Fatalf("menu keyboard = %v", kb.Labels())
	}

	resp = h.text("100", ru(locale.BtnSign))
	slots := last(t, resp).Keyboard
	if slots == nil || !slots.Inline || len(slots.Rows) != len(Slots) {
		t.Fatalf("slots keyboard = %+v", slots)
	}
	if b := slots.Rows[0][0]; b.Unique != SignUnique || b.Data != Slots[0] {
		t.Fatalf("slot button = %+v", b)
	}

	resp = h.handle(Event{Kind: KindCallback, UserID: "100", CallbackID: "cb1", Payload: "sign:" + Slots[1]})
	if !resp.ClearInline || resp.CallbackAnswer != "OK" || resp.Step != StepAfterSign {
		t.Fatalf("callback resp = %+v", resp)
	}
	appts := h.store.Appointments()
	if len(appts) != 1 || appts[0].Slot != Slots[1] || appts[0].Location != domain.DefaultLocation || appts[0].Status != "new" {
		t.Fatalf("appointments = %+v", appts)
	}

	resp = h.text("100", "anything")
	if last(t, resp).Text != ru(locale.SignDone) {
		t.Fatalf("after sign reply = %q", last(t, resp).Text)
	}
	resp = h.text("100", ru(locale.BtnBack))
	if last(t, resp).Text != ru(locale.SignWhen) || resp.Step != StepIdle {
		t.Fatalf("back from after sign = %q step=%s", last(t, resp).Text, resp.Step)
	}

	resp = h.text("100", ru(locale.BtnPay))
	if last(t, resp).Text != "Карта 8600 0000 0000 0000" {
		t.Fatalf("pay reply = %q", last(t, resp).Text)
	}
	resp = h.text("100", ru(locale.BtnMyChildren))
	if !strings.Contains(last(t, resp).Text, "Ali, 10") {
		t.Fatalf("children reply = %q", last(t, resp).Text)
	}
	resp = h.text("100", ru(locale.BtnSchedule))
	if !strings.Contains(last(t, resp).Text, ru(locale.SchedWaitPayment)) {
		t.Fatalf("schedule reply = %q", last(t, resp).Text)
	}
}

func TestCallbackGuards(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.handle(Event{Kind: KindCallback, UserID: "9", Payload: "sign:" + Slots[0]})
	if resp.CallbackAnswer != ru(locale.StartFirst) {
		t.Fatalf("unregistered answer = %q", resp.CallbackAnswer)
	}

	h.register("100", "Ivan", "998901234567")
	resp = h.handle(Event{Kind: KindCallback, UserID: "100", Payload: "sign:" + Slots[0]})
	if resp.CallbackAnswer != ru(locale.AddChildFirst) || len(h.store.Appointments()) != 0 {
		t.Fatalf("no child answer = %q", resp.CallbackAnswer)
	}

	h.addChild("100", "Ali", "10")
	resp = h.handle(Event{Kind: KindCallback, UserID: "100", Payload: "sign:Вс 09:00"})
	if len(h.store.Appointments()) != 0 || resp.ClearInline {
		t.Fatalf("unknown slot booked")
	}
}

func TestChildLinking(t *testing.T) {
	h := newHarness(t, nil)
	h.register("100", "Ivan", "998901234567")
	child := h.addChild("100", "Ali", "10")

	resp := h.start("100", child.Token)
	if last(t, resp).Text != ru(locale.LinkIsForChild) {
		t.Fatalf("self link reply = %q", last(t, resp).Text)
	}
	if h.store.Children()[0].Linked() {
		t.Fatalf("self link bound the parent")
	}

	resp = h.start("200", child.Token)
	if len(resp.Messages) != 2 {
		t.Fatalf("link messages = %+v", resp.Messages)
	}
	if resp.Messages[0].Text != "Ребёнок Ali подключил бота ✅" {
		t.Fatalf("parent notice = %q", resp.Messages[0].Text)
	}
	if resp.Step != StepKidPhone {
		t.Fatalf("step = %s", resp.Step)
	}
	if got := h.store.Children()[0]; got.TgID != "200" || !got.HasTelegram {
		t.Fatalf("child after link = %+v", got)
	}

	// repeating the link does not notify the parent again
	resp = h.start("200", child.Token)
	if len(resp.Messages) != 1 || resp.Role != "child" {
		t.Fatalf("relink = %+v", resp)
	}

	resp = h.start("300", child.Token)
	if last(t, resp).Text != ru(locale.LinkTaken) || h.store.Children()[0].TgID != "200" {
		t.Fatalf("foreign link reply = %q", last(t, resp).Text)
	}

	resp = h.text("200", "12")
	if last(t, resp).Text != ru(locale.AskPhoneRetry) {
		t.Fatalf("kid bad phone reply = %q", last(t, resp).Text)
	}
	resp = h.handle(Event{Kind: KindContact, UserID: "200", Phone: "+998 90 765 43 21"})
	if last(t, resp).Text != locale.Blank || resp.Step != StepIdle {
		t.Fatalf("kid phone reply = %+v", resp)
	}
	if got := h.store.Children()[0]; got.Phone != "998907654321" {
		t.Fatalf("kid phone = %q", got.Phone)
	}

	// with the phone known, /start resumes into the kid menu
	h.text("200", ru(locale.BtnKidHelp))
	resp = h.start("200", child.Token)
	if resp.Step != StepIdle || last(t, resp).Text != locale.Blank || !last(t, resp).Keyboard.Has(ru(locale.BtnKidSchedule)) {
		t.Fatalf("resume with phone = %+v", resp)
	}
	if len(resp.Messages) != 1 || len(resp.Alerts) != 0 || !h.sessions.Get("200").Idle() {
		t.Fatalf("resume sent extra output or kept the step: %+v", resp)
	}
	if got := h.store.Children()[0]; got.TgID != "200" || got.Phone != "998907654321" {
		t.Fatalf("child after resume = %+v", got)
	}

	resp = h.text("200", ru(locale.BtnKidSchedule))
	if last(t, resp).Text != ru(locale.KidTrial) {
		t.Fatalf("kid schedule = %q", last(t, resp).Text)
	}
	h.text("200", ru(locale.BtnKidHelp))
	resp = h.text("200", "когда тренировка?")
	if len(resp.Alerts) != 1 || !strings.Contains(resp.Alerts[0], "когда тренировка?") {
		t.Fatalf("kid alerts = %v", resp.Alerts)
	}
}

func TestLinkByNumericID(t *testing.T) {
	h := newHarness(t, nil)
	h.register("100", "Ivan", "998901234567")
	child := h.addChild("100", "Ali", "10")

	resp := h.start("200", strconv.FormatInt(child.ID, 10))
	if resp.Role != "unregistered" || resp.Step != StepKidPhone {
		t.Fatalf("numeric link resp = %+v", resp)
	}
	if h.store.Children()[0].TgID != "200" {
		t.Fatalf("child not bound")
	}
}

func TestUnknownRefKeptAsRefCode(t *testing.T) {
	h := newHarness(t, nil)
	h.start("100", "promo42")
	if got := h.sessions.Get("100").Field(fieldRefCode); got != "promo42" {
		t.Fatalf("ref code = %q", got)
	}
	h.text("100", locale.LabelUzbek)
	p := h.store.Parents()[0]
	if p.RefCode != "promo42" || p.Language != "uz" {
		t.Fatalf("parent = %+v", p)
	}
}

func TestSupportQuestion(t *testing.T) {
	h := newHarness(t, nil)
	h.register("100", "Ivan", "998901234567")
	resp := h.text("100", ru(locale.BtnHelp))
	if resp.Step != StepSupportAsk {
		t.Fatalf("step = %s", resp.Step)
	}
	resp = h.text("100", "<b>hi</b>")
	if len(resp.Alerts) != 1 || !strings.Contains(resp.Alerts[0], "&lt;b&gt;hi") {
		t.Fatalf("alerts = %v", resp.Alerts)
	}
	if last(t, resp).Text != ru(locale.SupportSent) || resp.Step != StepIdle {
		t.Fatalf("support reply = %q", last(t, resp).Text)
	}
}

func TestFailedTurnLeavesState(t *testing.T) {
	h := newHarness(t, func() string { return "sametokn" })
	h.register("100", "Ivan", "998901234567")
	h.addChild("100", "Ali", "10")

	h.text("100", ru(locale.BtnCreateChild))
	h.text("100", "Vali")
	_, err := h.eng.Handle(context.Background(), Event{Kind: KindText, UserID: "100", ChatID: 1, Text: "8"})
	if err == nil {
		t.Fatalf("expected token exhaustion error")
	}
	if n := len(h.store.Children()); n != 1 {
		t.Fatalf("children after failure = %d", n)
	}
	s := h.sessions.Get("100")
	if s.Step != StepChildAge || s.Field(fieldChildName) != "Vali" {
		t.Fatalf("session after failure = %+v", s)
	}
}

func TestBackAndFallthrough(t *testing.T) {
	h := newHarness(t, nil)
	h.register("100", "Ivan", "998901234567")
	back := ru(locale.BtnBack)

	cases := []struct {
		name  string
		setup []string
		input string
		step  state.State
		reply string
	}{
		{"back from child age", []string{ru(locale.BtnCreateChild), "Ali"}, back, StepChildName, ru(locale.AskChildName)},
		{"back from child name", []string{ru(locale.BtnCreateChild)}, back, StepIdle, "Привет, Ivan!"},
		{"back from support", []string{ru(locale.BtnHelp)}, back, StepIdle, "Привет, Ivan!"},
		{"back while idle", nil, back, StepIdle, "Привет, Ivan!"},
		{"main menu from child age", []string{ru(locale.BtnCreateChild), "Ali"}, ru(locale.BtnMainMenu), StepIdle, "Привет, Ivan!"},
		{"unknown idle text", nil, "gibberish", StepIdle, "Привет, Ivan!"},
	}
	for _, tc := range cases {
		h.sessions.Clear("100")
		for _, in := range tc.setup {
			h.text("100", in)
		}
		resp := h.text("100", tc.input)
		if resp.Step != tc.step || last(t, resp).Text != tc.reply {
			t.Fatalf("%s: step=%q reply=%q", tc.name, resp.Step, last(t, resp).Text)
		}
		if tc.step == StepIdle && !h.sessions.Get("100").Idle() {
			t.Fatalf("%s: session not cleared: %+v", tc.name, h.sessions.Get("100"))
		}
	}
	if n := len(h.store.Children()); n != 0 {
		t.Fatalf("back created children: %d", n)
	}
}

func TestMenuCommandPerRole(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.handle(Event{Kind: KindMenu, UserID: "9"})
	if last(t, resp).Text != locale.ChooseLang || resp.Step != StepChooseLanguage {
		t.Fatalf("unregistered /menu = %+v", resp)
	}

	h.register("100", "Ivan", "998901234567")
	child := h.addChild("100", "Ali", "10")
	h.text("100", ru(locale.BtnHelp))
	resp = h.handle(Event{Kind: KindMenu, UserID: "100"})
	if resp.Step != StepIdle || last(t, resp).Text != "Привет, Ivan!" || !last(t, resp).Keyboard.Has(ru(locale.BtnSign)) {
		t.Fatalf("parent /menu = %+v", resp)
	}
	if !h.sessions.Get("100").Idle() {
		t.Fatalf("parent session kept after /menu")
	}

	h.start("200", child.Token)
	resp = h.handle(Event{Kind: KindMenu, UserID: "200"})
	if resp.Step != StepIdle || last(t, resp).Text != locale.Blank || !last(t, resp).Keyboard.Has(ru(locale.BtnKidHelp)) {
		t.Fatalf("child /menu = %+v", resp)
	}
}

func TestStepGraph(t *testing.T) {
	cases := []struct {
		from, to state.State
		ok       bool
	}{
		{StepIdle, StepChildName, true},
		{StepChildName, StepChildAge, true},
		{StepChildAge, StepChildName, true},
		{StepIdle, StepChildAge, false},
		{StepIdle, StepParentPhone, false},
		{StepParentName, StepParentPhone, true},
		{StepKidPhone, StepKidSupport, true},
		{StepChildName, StepSupportAsk, false},
		{StepSupportAsk, StepIdle, true},
		{StepAfterSign, StepAfterSign, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("CanTransition(%q, %q) = %v", tc.from, tc.to, got)
		}
	}
}

func TestEnterDrivesSessionAndPrompts(t *testing.T) {
	tr := &turn{ctx: context.Background(), lang: locale.RU}
	if err := tr.enter(StepChildAge); err == nil {
		t.Fatalf("idle -> child_age should be refused")
	}
	if tr.touched || len(tr.resp.Messages) != 0 {
		t.Fatalf("refused step changed the turn: %+v", tr)
	}

	if err := tr.enter(StepChildName); err != nil {
		t.Fatalf("enter child_name: %v", err)
	}
	if err := tr.enter(StepChildAge, fieldChildName, "Ali"); err != nil {
		t.Fatalf("enter child_age: %v", err)
	}
	if tr.sess.Step != StepChildAge || tr.sess.Field(fieldChildName) != "Ali" || tr.fsm.Current() != string(StepChildAge) {
		t.Fatalf("session = %+v machine = %s", tr.sess, tr.fsm.Current())
	}
	if len(tr.resp.Messages) != 2 || tr.resp.Messages[0].Text != ru(locale.AskChildName) || tr.resp.Messages[1].Text != ru(locale.AskChildAge) {
		t.Fatalf("prompts = %+v", tr.resp.Messages)
	}

	// re-entering repeats the prompt with fresh fields
	if err := tr.enter(StepChildAge); err != nil {
		t.Fatalf("re-enter: %v", err)
	}
	if len(tr.resp.Messages) != 3 || tr.sess.Field(fieldChildName) != "" {
		t.Fatalf("re-enter = %+v", tr)
	}

	if err := tr.clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !tr.sess.Idle() || len(tr.resp.Messages) != 3 || tr.fsm.Current() != idleName {
		t.Fatalf("clear = %+v", tr.sess)
	}
}
