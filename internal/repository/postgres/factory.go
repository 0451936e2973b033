package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const uniqueViolation = "23505"

type Store struct {
	db   DB
	inTx bool
}

var _ repo.Store = (*Store)(nil)

func NewStore(db DB) *Store { return &Store{db: db} }

func (s *Store) Users() repo.Users                 { return &usersRepo{db: s.db} }
func (s *Store) Relationships() repo.Relationships { return &relationshipsRepo{db: s.db} }
func (s *Store) Microposts() repo.Microposts       { return &micropostsRepo{db: s.db} }
func (s *Store) AuditLogs() repo.AuditLogs         { return &auditLogsRepo{db: s.db} }

// WithTx runs fn in one transaction. Nested calls reuse the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{db: tx, inTx: true}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapErr translates driver errors into repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repo.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
