// Package domain holds the CRM records shared by the bot, the HTTP API and
// the storage backends.
package domain

import "time"

// DefaultLocation is where trial sessions take place.
const DefaultLocation = "Главный зал"

// Parent is a registered parent. TgID is the messenger user id, empty for
// parents known only from the website.
type Parent struct {
	ID        int64     `db:"id"`
	TgID      string    `db:"tg_id"`
	FullName  string    `db:"full_name"`
	Phone     string    `db:"phone"`
	City      string    `db:"city"`
	Language  string    `db:"language"`
	RefCode   string    `db:"ref_code"`
	CreatedAt time.Time `db:"created_at"`
}

// Child belongs to a parent. A child becomes linked once TgID is bound.
type Child struct {
	ID           int64     `db:"id"`
	ParentID     int64     `db:"parent_id"`
	Name         string    `db:"name"`
	Age          int       `db:"age"`
	Token        string    `db:"token"`
	HasTelegram  bool      `db:"has_telegram"`
	TgID         string    `db:"tg_id"`
	Phone        string    `db:"phone"`
	ScheduleText string    `db:"schedule_text"`
	Paid         bool      `db:"paid"`
	CreatedAt    time.Time `db:"created_at"`
}

// Linked reports whether a messenger identity is bound.
func (c Child) Linked() bool { return c.TgID != "" }

// Appointment is a booked trial slot.
type Appointment struct {
	ID        int64     `db:"id"`
	ChildID   int64     `db:"child_id"`
	Slot      string    `db:"slot"`
	Location  string    `db:"location"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// Lead statuses.
const (
	LeadNew    = "new"
	LeadInWork = "in_work"
	LeadWon    = "won"
	LeadLost   = "lost"
)

// Lead is a website enquiry.
type Lead struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Phone      string    `db:"phone"`
	Age        string    `db:"age"`
	Comment    string    `db:"comment"`
	TgUsername string    `db:"tg_username"`
	Source     string    `db:"source"`
	RefCode    string    `db:"ref_code"`
	Status     string    `db:"status"`
	Processed  bool      `db:"processed"`
	CreatedAt  time.Time `db:"created_at"`
}

// Audience selects broadcast recipients.
type Audience string

const (
	AudienceParents  Audience = "parents"
	AudienceChildren Audience = "children"
)

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	return a == AudienceParents || a == AudienceChildren
}

// Recipient is one row of a broadcast audience.
type Recipient struct {
	ID   int64  `db:"id"`
	TgID string `db:"tg_id"`
}
