// Package postgres implements domain.Store on PostgreSQL through sqlx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/crm/domain"
)

// Store runs transactions against a connection pool.
type Store struct {
	db *sqlx.DB
}

var _ domain.Store = (*Store)(nil)

// New wraps an open pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// InTx implements domain.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn(ctx, "db", "tx.rollback_failed", logger.Err(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	logger.Debug(ctx, "db", "tx.commit", slog.Duration("duration", logger.Took(start)))
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type queries struct {
	q sqlx.ExtContext
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

const parentColumns = `id, COALESCE(tg_id, '') AS tg_id, full_name, phone, city, language, ref_code, created_at`

func (q *queries) ParentByTgID(ctx context.Context, tgID string) (*domain.Parent, error) {
	var p domain.Parent
	err := sqlx.GetContext(ctx, q.q, &p, `SELECT `+parentColumns+` FROM parents WHERE tg_id = $1`, tgID)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (q *queries) ParentByID(ctx context.Context, id int64) (*domain.Parent, error) {
	var p domain.Parent
	err := sqlx.GetContext(ctx, q.q, &p, `SELECT `+parentColumns+` FROM parents WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (q *queries) CreateParent(ctx context.Context, p *domain.Parent) error {
	row := q.q.QueryRowxContext(ctx, `
		INSERT INTO parents (tg_id, full_name, phone, city, language, ref_code)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6)
		ON CONFLICT (tg_id) DO NOTHING
		RETURNING id, created_at`,
		p.TgID, p.FullName, p.Phone, p.City, p.Language, p.RefCode)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAlreadyLinked
		}
		return fmt.Errorf("insert parent: %w", err)
	}
	return nil
}

func (q *queries) UpdateParent(ctx context.Context, p *domain.Parent) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE parents SET full_name = $2, phone = $3, city = $4, language = $5, ref_code = $6
		WHERE id = $1`,
		p.ID, p.FullName, p.Phone, p.City, p.Language, p.RefCode)
	if err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return requireRow(res)
}

const childColumns = `id, parent_id, name, age, token, has_telegram, COALESCE(tg_id, '') AS tg_id,
	phone, schedule_text, paid, created_at`

func (q *queries) getChild(ctx context.Context, where string, arg any) (*domain.Child, error) {
	var c domain.Child
	err := sqlx.GetContext(ctx, q.q, &c, `SELECT `+childColumns+` FROM children WHERE `+where, arg)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (q *queries) ChildByID(ctx context.Context, id int64) (*domain.Child, error) {
	return q.getChild(ctx, `id = $1`, id)
}

func (q *queries) ChildByToken(ctx context.Context, token string) (*domain.Child, error) {
	return q.getChild(ctx, `token = $1`, token)
}

func (q *queries) ChildByTgID(ctx context.Context, tgID string) (*domain.Child, error) {
	return q.getChild(ctx, `tg_id = $1`, tgID)
}

func (q *queries) ChildrenOf(ctx context.Context, parentID int64) ([]domain.Child, error) {
	var out []domain.Child
	err := sqlx.SelectContext(ctx, q.q, &out,
		`SELECT `+childColumns+` FROM children WHERE parent_id = $1 ORDER BY id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return out, nil
}

func (q *queries) RecentChild(ctx context.Context, parentID int64, name string, age int, since time.Time) (*domain.Child, error) {
	var c domain.Child
	err := sqlx.GetContext(ctx, q.q, &c, `
		SELECT `+childColumns+` FROM children
		WHERE parent_id = $1 AND name = $2 AND age = $3 AND created_at > $4
		ORDER BY id DESC LIMIT 1`,
		parentID, name, age, since)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (q *queries) CreateChild(ctx context.Context, c *domain.Child) error {
	row := q.q.QueryRowxContext(ctx, `
		INSERT INTO children (parent_id, name, age, token, has_telegram, phone, schedule_text, paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (token) DO NOTHING
		RETURNING id, created_at`,
		c.ParentID, c.Name, c.Age, c.Token, c.HasTelegram, c.Phone, c.ScheduleText, c.Paid)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTokenConflict
		}
		return fmt.Errorf("insert child: %w", err)
	}
	return nil
}

func (q *queries) BindChild(ctx context.Context, childID int64, tgID string) error {
	if other, err := q.ChildByTgID(ctx, tgID); err == nil && other.ID != childID {
		return domain.ErrAlreadyLinked
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	err := bindTgID(ctx, q.q, childID, tgID)
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := q.ChildByID(ctx, childID); err != nil {
		return err
	}
	return domain.ErrAlreadyLinked
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// bindTgID sets the child's identity. A unique violation is rolled back to a
// savepoint, so the surrounding transaction can still commit.
func bindTgID(ctx context.Context, ex execer, childID int64, tgID string) error {
	var res sql.Result
	err := inSavepoint(ctx, ex, "bind_child", func() error {
		var err error
		res, err = ex.ExecContext(ctx, `
			UPDATE children SET tg_id = $2, has_telegram = TRUE
			WHERE id = $1 AND (tg_id IS NULL OR tg_id = $2)`,
			childID, tgID)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyLinked
		}
		return fmt.Errorf("bind child: %w", err)
	}
	return requireRow(res)
}

func inSavepoint(ctx context.Context, ex execer, name string, fn func() error) error {
	if _, err := ex.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := ex.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint %s: %w", name, rbErr))
		}
		return err
	}
	if _, err := ex.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}

func (q *queries) SetChildPhone(ctx context.Context, childID int64, phone string) error {
	res, err := q.q.ExecContext(ctx, `UPDATE children SET phone = $2 WHERE id = $1`, childID, phone)
	if err != nil {
		return fmt.Errorf("set child phone: %w", err)
	}
	return requireRow(res)
}

func (q *queries) CreateAppointment(ctx context.Context, a *domain.Appointment) error {
	row := q.q.QueryRowxContext(ctx, `
		INSERT INTO appointments (child_id, slot, location, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.ChildID, a.Slot, a.Location, a.Status)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

const leadColumns = `id, name, phone, age, comment, tg_username, source, ref_code, status, processed, created_at`

func (q *queries) RecentLeadByPhone(ctx context.Context, phone string, since time.Time) (*domain.Lead, error) {
	var l domain.Lead
	err := sqlx.GetContext(ctx, q.q, &l, `
		SELECT `+leadColumns+` FROM leads
		WHERE phone = $1 AND status = $2 AND created_at >= $3
		ORDER BY id DESC LIMIT 1`,
		phone, domain.LeadNew, since)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (q *queries) CreateLead(ctx context.Context, l *domain.Lead) error {
	row := q.q.QueryRowxContext(ctx, `
		INSERT INTO leads (name, phone, age, comment, tg_username, source, ref_code, status, processed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		l.Name, l.Phone, l.Age, l.Comment, l.TgUsername, l.Source, l.RefCode, l.Status, l.Processed)
	if err := row.Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

var recipientQueries = map[domain.Audience]string{
	domain.AudienceParents: `SELECT id, tg_id FROM parents
		WHERE tg_id IS NOT NULL AND tg_id <> '' AND id > $1 ORDER BY id LIMIT $2`,
	domain.AudienceChildren: `SELECT id, tg_id FROM children
		WHERE tg_id IS NOT NULL AND tg_id <> '' AND id > $1 ORDER BY id LIMIT $2`,
}

func (q *queries) Recipients(ctx context.Context, audience domain.Audience, afterID int64, limit int) ([]domain.Recipient, error) {
	query, ok := recipientQueries[audience]
	if !ok {
		return nil, domain.ErrUnknownAudience
	}
	var out []domain.Recipient
	if err := sqlx.SelectContext(ctx, q.q, &out, query, afterID, limit); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
