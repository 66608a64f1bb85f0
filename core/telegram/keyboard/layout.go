// Package keyboard describes reply and inline keyboards as plain values and
// renders them into telebot markup at the transport edge.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is a single key. RequestContact asks the client to share the phone
// number; Unique and Data are used by inline buttons only.
type Button struct {
	Text           string
	RequestContact bool
	Unique         string
	Data           string
}

// Layout is an ordered grid of buttons.
type Layout struct {
	Rows   [][]Button
	Inline bool
}

// Reply builds a reply keyboard from rows of labels.
func Reply(rows ...[]string) *Layout {
	l := &Layout{}
	for _, row := range rows {
		btns := make([]Button, 0, len(row))
		for _, label := range row {
			btns = append(btns, Button{Text: label})
		}
		l.Rows = append(l.Rows, btns)
	}
	return l
}

// Inline builds an inline keyboard from button rows.
func Inline(rows ...[]Button) *Layout {
	return &Layout{Rows: rows, Inline: true}
}

// Labels flattens reply button labels, mostly for assertions.
func (l *Layout) Labels() []string {
	if l == nil {
		return nil
	}
	var out []string
	for _, row := range l.Rows {
		for _, b := range row {
			out = append(out, b.Text)
		}
	}
	return out
}

// Has reports whether a button with the given label exists.
func (l *Layout) Has(label string) bool {
	for _, t := range l.Labels() {
		if t == label {
			return true
		}
	}
	return false
}

// Markup renders the layout; a nil layout yields nil.
func (l *Layout) Markup() *tele.ReplyMarkup {
	if l == nil {
		return nil
	}
	if l.Inline {
		markup := &tele.ReplyMarkup{}
		inline := make([][]tele.InlineButton, len(l.Rows))
		for i, row := range l.Rows {
			r := make([]tele.InlineButton, len(row))
			for j, b := range row {
				r[j] = *markup.Data(b.Text, b.Unique, b.Data).Inline()
			}
			inline[i] = r
		}
		markup.InlineKeyboard = inline
		return markup
	}

	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	rows := make([]tele.Row, 0, len(l.Rows))
	for _, row := range l.Rows {
		btns := make([]tele.Btn, 0, len(row))
		for _, b := range row {
			if b.RequestContact {
				btns = append(btns, markup.Contact(b.Text))
			} else {
				btns = append(btns, markup.Text(b.Text))
			}
		}
		rows = append(rows, markup.Row(btns...))
	}
	markup.Reply(rows...)
	return markup
}
