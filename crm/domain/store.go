package domain

import (
	"context"
	"time"
)

// Tx is the set of operations available inside one storage transaction.
// Lookups return ErrNotFound when nothing matches.
type Tx interface {
	ParentByTgID(ctx context.Context, tgID string) (*Parent, error)
	ParentByID(ctx context.Context, id int64) (*Parent, error)
	CreateParent(ctx context.Context, p *Parent) error
	UpdateParent(ctx context.Context, p *Parent) error

	ChildByID(ctx context.Context, id int64) (*Child, error)
	ChildByToken(ctx context.Context, token string) (*Child, error)
	ChildByTgID(ctx context.Context, tgID string) (*Child, error)
	ChildrenOf(ctx context.Context, parentID int64) ([]Child, error)
	// RecentChild finds a child of parentID with the same name and age created after since.
	RecentChild(ctx context.Context, parentID int64, name string, age int, since time.Time) (*Child, error)
	// CreateChild inserts c; a taken token yields ErrTokenConflict and leaves
	// the transaction usable.
	CreateChild(ctx context.Context, c *Child) error
	// BindChild sets the identity of a child. Binding the same identity again
	// is a no-op; any other collision yields ErrAlreadyLinked.
	BindChild(ctx context.Context, childID int64, tgID string) error
	SetChildPhone(ctx context.Context, childID int64, phone string) error

	CreateAppointment(ctx context.Context, a *Appointment) error

	RecentLeadByPhone(ctx context.Context, phone string, since time.Time) (*Lead, error)
	CreateLead(ctx context.Context, l *Lead) error

	// Recipients returns up to limit rows of the audience with a bound
	// identity and id greater than afterID, ordered by id.
	Recipients(ctx context.Context, audience Audience, afterID int64, limit int) ([]Recipient, error)
}

// Store runs transactions. fn's changes are committed when it returns nil and
// rolled back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
