package conversation

import (
	"github.com/m3rciful/boxingcrm/core/telegram/keyboard"
	"github.com/m3rciful/boxingcrm/crm/locale"
)

// Slots are the bookable trial times.
var Slots = []string{"Пн 17:00", "Ср 17:00", "Пт 17:00"}

// SignUnique is the inline button id of the booking slots.
const SignUnique = "sign"

func validSlot(s string) bool {
	for _, slot := range Slots {
		if slot == s {
			return true
		}
	}
	return false
}

func tr(lang, key string) string { return locale.T(lang, key) }

func langKB() *keyboard.Layout {
	return keyboard.Reply([]string{locale.LabelRussian, locale.LabelUzbek})
}

func stepKB(lang string) *keyboard.Layout {
	return keyboard.Reply([]string{tr(lang, locale.BtnBack), tr(lang, locale.BtnMainMenu)})
}

func phoneKB(lang string) *keyboard.Layout {
	return &keyboard.Layout{Rows: [][]keyboard.Button{
		{{Text: tr(lang, locale.BtnSharePhone), RequestContact: true}},
		{{Text: tr(lang, locale.BtnBack)}},
		{{Text: tr(lang, locale.BtnMainMenu)}},
	}}
}

func kidPhoneKB(lang string) *keyboard.Layout {
	return &keyboard.Layout{Rows: [][]keyboard.Button{
		{{Text: tr(lang, locale.BtnSharePhone), RequestContact: true}},
		{{Text: tr(lang, locale.BtnBack)}},
	}}
}

func parentMenuKB(lang string, hasChild bool) *keyboard.Layout {
	if !hasChild {
		return keyboard.Reply(
			[]string{tr(lang, locale.BtnCreateChild)},
			[]string{tr(lang, locale.BtnHelp)},
			[]string{tr(lang, locale.BtnBack)},
		)
	}
	return keyboard.Reply(
		[]string{tr(lang, locale.BtnSign), tr(lang, locale.BtnSchedule)},
		[]string{tr(lang, locale.BtnPrices), tr(lang, locale.BtnMyChildren)},
		[]string{tr(lang, locale.BtnCreateChild)},
		[]string{tr(lang, locale.BtnPay)},
		[]string{tr(lang, locale.BtnHelp)},
	)
}

func childAddedKB(lang string) *keyboard.Layout {
	return keyboard.Reply(
		[]string{tr(lang, locale.BtnSign)},
		[]string{tr(lang, locale.BtnHelp)},
		[]string{tr(lang, locale.BtnBack)},
	)
}

func afterSignKB(lang string) *keyboard.Layout {
	return keyboard.Reply([]string{tr(lang, locale.BtnMainMenu)})
}

func kidMenuKB(lang string) *keyboard.Layout {
	return keyboard.Reply(
		[]string{tr(lang, locale.BtnKidSchedule)},
		[]string{tr(lang, locale.BtnKidHelp)},
	)
}

func slotsKB() *keyboard.Layout {
	rows := make([][]keyboard.Button, 0, len(Slots))
	for _, slot := range Slots {
		rows = append(rows, []keyboard.Button{{Text: slot, Unique: SignUnique, Data: slot}})
	}
	return keyboard.Inline(rows...)
}
