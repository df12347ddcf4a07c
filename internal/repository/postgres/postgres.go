package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/repository"

	"github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

type Store struct {
	db       *sql.DB
	estates  repository.EstateRepository
	units    repository.UnitRepository
	persons  repository.PersonRepository
	payments repository.PaymentRepository
	tickets  repository.TicketRepository
	invoices repository.InvoiceRepository
}

var _ repository.Directory = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		estates:  NewEstateRepository(db),
		units:    NewUnitRepository(db),
		persons:  NewPersonRepository(db),
		payments: NewPaymentRepository(db),
		tickets:  NewTicketRepository(db),
		invoices: NewInvoiceRepository(db),
	}
}

func (s *Store) Estates() repository.EstateRepository   { return s.estates }
func (s *Store) Units() repository.UnitRepository       { return s.units }
func (s *Store) Persons() repository.PersonRepository   { return s.persons }
func (s *Store) Payments() repository.PaymentRepository { return s.payments }
func (s *Store) Tickets() repository.TicketRepository   { return s.tickets }
func (s *Store) Invoices() repository.InvoiceRepository { return s.invoices }

// RunInTx runs fn inside a single database transaction. Nested calls join the
// outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("Transaction commit failed", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// checkAffected turns a zero-row conditional update into ErrVersionConflict.
func checkAffected(res sql.Result, operation string) error {
	rows, err := res.RowsAffected()
	logger.DatabaseResult(operation, rows, err)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

const uniqueViolation = "23505"

func duplicate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// nullString maps an optional id onto a nullable column value.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
