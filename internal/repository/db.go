package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/localink/localink/internal/domain"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// can run either standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	Bookings BookingRepository
	Tours    TourRepository
	Reviews  ReviewRepository
	Messages MessageRepository
	Users    UserRepository
}

func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Bookings: NewBookingRepository(db),
		Tours:    NewTourRepository(db),
		Reviews:  NewReviewRepository(db),
		Messages: NewMessageRepository(db),
		Users:    NewUserRepository(db),
	}
}

type Transactor interface {
	// WithinTx runs fn in one serializable transaction. fn may be invoked
	// more than once when the database aborts the transaction with a
	// serialization failure, so it must not have side effects outside repos.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type PGTransactor struct {
	pool        *pgxpool.Pool
	maxAttempts int
	backoff     time.Duration
}

func NewTransactor(pool *pgxpool.Pool, maxAttempts int) *PGTransactor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PGTransactor{pool: pool, maxAttempts: maxAttempts, backoff: 20 * time.Millisecond}
}

func (t *PGTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * t.backoff):
		}
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", t.maxAttempts, err)
}

func (t *PGTransactor) runOnce(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ Transactor = (*PGTransactor)(nil)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// wrapErr translates driver errors into domain kinds and keeps the driver
// error in the chain.
func wrapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrNotFound, err)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrValidation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
