package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:sessions"`

	TenantKey string    `bun:"tenant_key,pk"`
	SessionID string    `bun:"session_id,pk"`
	Version   int64     `bun:"version,notnull"`
	Cart      Cart      `bun:"cart,type:jsonb"`
	Context   Context   `bun:"context,type:jsonb"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func rowFromSession(s *Session) *sessionRow {
	return &sessionRow{
		TenantKey: s.TenantKey,
		SessionID: s.SessionID,
		Version:   s.Version,
		Cart:      s.Cart,
		Context:   s.Context,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r *sessionRow) session() *Session {
	return &Session{
		TenantKey: r.TenantKey,
		SessionID: r.SessionID,
		Version:   r.Version,
		Cart:      r.Cart,
		Context:   r.Context,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// PostgresStore guards writes with the version column.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*sessionRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, key Key) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	var row sessionRow
	err := s.db.NewSelect().Model(&row).
		Where("tenant_key = ?", key.TenantKey).
		Where("session_id = ?", key.SessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("select session %s: %w", key, err)
	}
	return row.session(), nil
}

func (s *PostgresStore) Create(ctx context.Context, sess *Session) error {
	if err := checkWritable(sess); err != nil {
		return err
	}
	row := rowFromSession(sess)
	row.Version = 1
	res, err := s.createQuery(row).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.Key(), err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert session %s: %w", sess.Key(), err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionExists, sess.Key())
	}
	sess.Version = 1
	return nil
}

func (s *PostgresStore) CompareAndSwap(ctx context.Context, sess *Session, expected int64) error {
	if err := checkWritable(sess); err != nil {
		return err
	}
	row := rowFromSession(sess)
	row.Version = expected + 1
	res, err := s.casQuery(row, expected).Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sess.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %s: %w", sess.Key(), err)
	}
	if n == 0 {
		return conflict(sess.Key(), expected)
	}
	sess.Version = row.Version
	return nil
}

// createQuery inserts row only when no session with its key exists.
func (s *PostgresStore) createQuery(row *sessionRow) *bun.InsertQuery {
	return s.db.NewInsert().Model(row).
		On("CONFLICT (tenant_key, session_id) DO NOTHING")
}

// casQuery updates row only while the stored version still equals expected.
func (s *PostgresStore) casQuery(row *sessionRow, expected int64) *bun.UpdateQuery {
	return s.db.NewUpdate().Model(row).
		Column("version", "cart", "context", "updated_at").
		WherePK().
		Where("version = ?", expected)
}

func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	_, err := s.db.NewDelete().Model((*sessionRow)(nil)).
		Where("tenant_key = ?", key.TenantKey).
		Where("session_id = ?", key.SessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}
