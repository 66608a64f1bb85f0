// Package leads accepts trial requests submitted on the website.
package leads

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/crm/alerts"
	"github.com/m3rciful/boxingcrm/crm/domain"
)

// DefaultWindow is how long a new lead with the same phone is returned
// instead of a fresh one.
const DefaultWindow = 60 * time.Minute

// DefaultSource marks leads coming from the site form.
const DefaultSource = "site"

// Alerter fans a text out to the admins.
type Alerter interface {
	Notify(ctx context.Context, text string) int
}

// Service stores leads and alerts the admins about new ones.
type Service struct {
	store  domain.Store
	alerts Alerter
	window time.Duration
	now    func() time.Time
}

// New returns a lead service. A nil alerter disables alerts.
func New(store domain.Store, alerter Alerter, window time.Duration, now func() time.Time) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, alerts: alerter, window: window, now: now}
}

// Submit normalizes l and stores it unless a new lead with the same phone
// arrived within the window. created is false when the existing lead is
// returned. Admins are alerted only after a successful commit.
func (s *Service) Submit(ctx context.Context, l domain.Lead) (lead domain.Lead, created bool, err error) {
	l.Name = strings.TrimSpace(l.Name)
	l.Phone = domain.NormalizePhone(l.Phone)
	l.TgUsername = strings.TrimPrefix(strings.TrimSpace(l.TgUsername), "@")
	l.Comment = strings.TrimSpace(l.Comment)
	if l.Source == "" {
		l.Source = DefaultSource
	}
	l.Status = domain.LeadNew
	l.Processed = false

	err = s.store.InTx(ctx, func(tx domain.Tx) error {
		dup, err := tx.RecentLeadByPhone(ctx, l.Phone, s.now().Add(-s.window))
		switch {
		case err == nil:
			lead = *dup
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if err := tx.CreateLead(ctx, &l); err != nil {
			return err
		}
		lead, created = l, true
		return nil
	})
	if err != nil {
		return domain.Lead{}, false, err
	}

	logger.Info(ctx, "leads", "lead.submit",
		slog.Int64("lead_id", lead.ID),
		slog.Bool("created", created),
		slog.String("source", lead.Source),
	)
	if created && s.alerts != nil {
		s.alerts.Notify(ctx, alerts.NewLead(lead))
	}
	return lead, created, nil
}
