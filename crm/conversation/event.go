package conversation

import (
	"github.com/m3rciful/boxingcrm/core/telegram/keyboard"
	"github.com/m3rciful/boxingcrm/core/telegram/state"
)

// Kind classifies an inbound event.
type Kind int

const (
	KindText Kind = iota
	KindStart
	KindMenu
	KindWhoAmI
	KindContact
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindMenu:
		return "menu"
	case KindWhoAmI:
		return "whoami"
	case KindContact:
		return "contact"
	case KindCallback:
		return "callback"
	default:
		return "text"
	}
}

// Event is one inbound update. Payload carries the /start argument or the
// callback data ("sign:<slot>"); Phone carries a shared contact number.
type Event struct {
	Kind       Kind
	UserID     string
	ChatID     int64
	MessageID  int
	CallbackID string
	Text       string
	Payload    string
	Phone      string
	FirstName  string
	Username   string
}

// Message is one outbound text. A nil Keyboard leaves the current one in place.
type Message struct {
	ChatID   int64
	Text     string
	Keyboard *keyboard.Layout
}

// Response describes everything to deliver once the event is committed.
type Response struct {
	Messages []Message
	// Alerts go to every admin.
	Alerts []string
	// CallbackAnswer is shown to the user who pressed an inline button.
	CallbackAnswer string
	// ClearInline removes the inline keyboard of the pressed message.
	ClearInline bool

	Role string
	Step state.State
}
