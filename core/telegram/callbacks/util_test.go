package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		cb            *tele.Callback
		unique, value string
	}{
		{nil, "", ""},
		{&tele.Callback{Data: "\fsign|Пн 17:00"}, "sign", "Пн 17:00"},
		{&tele.Callback{Data: "\fsign"}, "sign", ""},
		{&tele.Callback{Unique: "sign", Data: "Ср 17:00"}, "sign", "Ср 17:00"},
		{&tele.Callback{Data: "sign:Пт 17:00"}, "sign:Пт 17:00", ""},
	}
	for _, tc := range cases {
		u, p := Parse(tc.cb)
		if u != tc.unique || p != tc.value {
			t.Fatalf("Parse(%+v) = %q,%q want %q,%q", tc.cb, u, p, tc.unique, tc.value)
		}
	}
}
