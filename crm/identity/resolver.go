// Package identity maps a messenger user to its CRM role and language.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/locale"
)

// Role is the CRM role of a messenger identity.
type Role int

const (
	Unregistered Role = iota
	Parent
	Child
)

func (r Role) String() string {
	switch r {
	case Parent:
		return "parent"
	case Child:
		return "child"
	default:
		return "unregistered"
	}
}

// Identity is the resolved role of one user for one event. For a child,
// Parent is the child's parent when it still exists.
type Identity struct {
	Role   Role
	Parent *domain.Parent
	Child  *domain.Child
	Lang   string
}

// Lookup is the storage subset needed for resolution.
type Lookup interface {
	ChildByTgID(ctx context.Context, tgID string) (*domain.Child, error)
	ParentByTgID(ctx context.Context, tgID string) (*domain.Parent, error)
	ParentByID(ctx context.Context, id int64) (*domain.Parent, error)
}

// Resolver resolves identities against the current transaction. It keeps no
// state between calls.
type Resolver struct {
	defaultLang string
}

// NewResolver returns a resolver using defaultLang for unknown users.
func NewResolver(defaultLang string) *Resolver {
	return &Resolver{defaultLang: locale.Normalize(defaultLang, locale.RU)}
}

// DefaultLang returns the configured fallback language.
func (r *Resolver) DefaultLang() string { return r.defaultLang }

// Resolve checks for a bound child first, then a parent.
func (r *Resolver) Resolve(ctx context.Context, q Lookup, userID string) (Identity, error) {
	child, err := q.ChildByTgID(ctx, userID)
	switch {
	case err == nil:
		id := Identity{Role: Child, Child: child, Lang: r.defaultLang}
		parent, err := q.ParentByID(ctx, child.ParentID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return Identity{}, fmt.Errorf("resolve child parent: %w", err)
		}
		if parent != nil {
			id.Parent = parent
			id.Lang = locale.Normalize(parent.Language, r.defaultLang)
		}
		return id, nil
	case !errors.Is(err, domain.ErrNotFound):
		return Identity{}, fmt.Errorf("resolve child: %w", err)
	}

	parent, err := q.ParentByTgID(ctx, userID)
	switch {
	case err == nil:
		return Identity{Role: Parent, Parent: parent, Lang: locale.Normalize(parent.Language, r.defaultLang)}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return Identity{}, fmt.Errorf("resolve parent: %w", err)
	}
	return Identity{Role: Unregistered, Lang: r.defaultLang}, nil
}
