package memory

import (
	"context"
	"time"

	"github.com/m3rciful/boxingcrm/crm/domain"
)

type tx struct {
	d   *dataset
	now func() time.Time
}

func (t *tx) nextID() int64 {
	t.d.lastID++
	return t.d.lastID
}

func (t *tx) ParentByTgID(_ context.Context, tgID string) (*domain.Parent, error) {
	if tgID == "" {
		return nil, domain.ErrNotFound
	}
	for _, p := range t.d.parents {
		if p.TgID == tgID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *tx) ParentByID(_ context.Context, id int64) (*domain.Parent, error) {
	p, ok := t.d.parents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (t *tx) CreateParent(_ context.Context, p *domain.Parent) error {
	if p.TgID != "" {
		for _, other := range t.d.parents {
			if other.TgID == p.TgID {
				return domain.ErrAlreadyLinked
			}
		}
	}
	p.ID = t.nextID()
	p.CreatedAt = t.now()
	t.d.parents[p.ID] = *p
	return nil
}

func (t *tx) UpdateParent(_ context.Context, p *domain.Parent) error {
	if _, ok := t.d.parents[p.ID]; !ok {
		return domain.ErrNotFound
	}
	t.d.parents[p.ID] = *p
	return nil
}

func (t *tx) ChildByID(_ context.Context, id int64) (*domain.Child, error) {
	c, ok := t.d.children[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (t *tx) ChildByToken(_ context.Context, token string) (*domain.Child, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	for _, c := range t.d.children {
		if c.Token == token {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *tx) ChildByTgID(_ context.Context, tgID string) (*domain.Child, error) {
	if tgID == "" {
		return nil, domain.ErrNotFound
	}
	for _, c := range t.d.children {
		if c.TgID == tgID {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *tx) ChildrenOf(_ context.Context, parentID int64) ([]domain.Child, error) {
	var out []domain.Child
	for _, c := range sortedValues(t.d.children, func(c domain.Child) int64 { return c.ID }) {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (t *tx) RecentChild(_ context.Context, parentID int64, name string, age int, since time.Time) (*domain.Child, error) {
	var best *domain.Child
	for _, c := range t.d.children {
		if c.ParentID != parentID || c.Name != name || c.Age != age || !c.CreatedAt.After(since) {
			continue
		}
		if best == nil || c.ID > best.ID {
			c := c
			best = &c
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (t *tx) CreateChild(_ context.Context, c *domain.Child) error {
	if _, ok := t.d.parents[c.ParentID]; !ok {
		return domain.ErrNotFound
	}
	for _, other := range t.d.children {
		if c.Token != "" && other.Token == c.Token {
			return domain.ErrTokenConflict
		}
	}
	c.ID = t.nextID()
	c.CreatedAt = t.now()
	t.d.children[c.ID] = *c
	return nil
}

func (t *tx) BindChild(_ context.Context, childID int64, tgID string) error {
	c, ok := t.d.children[childID]
	if !ok {
		return domain.ErrNotFound
	}
	if c.TgID == tgID {
		return nil
	}
	if c.TgID != "" {
		return domain.ErrAlreadyLinked
	}
	for _, other := range t.d.children {
		if other.TgID == tgID {
			return domain.ErrAlreadyLinked
		}
	}
	c.TgID = tgID
	c.HasTelegram = true
	t.d.children[childID] = c
	return nil
}

func (t *tx) SetChildPhone(_ context.Context, childID int64, phone string) error {
	c, ok := t.d.children[childID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Phone = phone
	t.d.children[childID] = c
	return nil
}

func (t *tx) CreateAppointment(_ context.Context, a *domain.Appointment) error {
	if _, ok := t.d.children[a.ChildID]; !ok {
		return domain.ErrNotFound
	}
	a.ID = t.nextID()
	a.CreatedAt = t.now()
	t.d.appointments[a.ID] = *a
	return nil
}

func (t *tx) RecentLeadByPhone(_ context.Context, phone string, since time.Time) (*domain.Lead, error) {
	var best *domain.Lead
	for _, l := range t.d.leads {
		if l.Phone != phone || l.Status != domain.LeadNew || l.CreatedAt.Before(since) {
			continue
		}
		if best == nil || l.ID > best.ID {
			l := l
			best = &l
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (t *tx) CreateLead(_ context.Context, l *domain.Lead) error {
	l.ID = t.nextID()
	l.CreatedAt = t.now()
	t.d.leads[l.ID] = *l
	return nil
}

func (t *tx) Recipients(_ context.Context, audience domain.Audience, afterID int64, limit int) ([]domain.Recipient, error) {
	var out []domain.Recipient
	switch audience {
	case domain.AudienceParents:
		for _, p := range sortedValues(t.d.parents, func(p domain.Parent) int64 { return p.ID }) {
			if p.ID > afterID && p.TgID != "" {
				out = append(out, domain.Recipient{ID: p.ID, TgID: p.TgID})
			}
		}
	case domain.AudienceChildren:
		for _, c := range sortedValues(t.d.children, func(c domain.Child) int64 { return c.ID }) {
			if c.ID > afterID && c.TgID != "" {
				out = append(out, domain.Recipient{ID: c.ID, TgID: c.TgID})
			}
		}
	default:
		return nil, domain.ErrUnknownAudience
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
