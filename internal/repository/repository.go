package repository

import (
	"context"
	"errors"
	"time"

	"estatehub-backend/internal/domain"
)

var (
	// ErrNotFound is returned by GetBy* lookups that match no record.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by UpdateIfVersion when the stored row
	// version no longer matches the version the caller read.
	ErrVersionConflict = errors.New("row version conflict")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// TxRunner groups repository calls into one atomic write group. Repositories
// called with the ctx passed to fn read and write inside the transaction;
// returning an error from fn discards every write of the group.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EstateRepository interface {
	Create(ctx context.Context, estate *domain.Estate) error
	GetByID(ctx context.Context, id string) (*domain.Estate, error)
	GetByJoinCode(ctx context.Context, code string) (*domain.Estate, error)
	GetByManager(ctx context.Context, managerID string) (*domain.Estate, error)
}

type UnitRepository interface {
	Create(ctx context.Context, unit *domain.Unit) error
	GetByID(ctx context.Context, id string) (*domain.Unit, error)
	ListByEstate(ctx context.Context, estateID string, status *domain.UnitStatus) ([]domain.Unit, error)
	UpdateIfVersion(ctx context.Context, unit *domain.Unit, expected int64) error
}

type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	ListPendingByEstate(ctx context.Context, estateID string) ([]domain.Person, error)
	UpdateIfVersion(ctx context.Context, person *domain.Person, expected int64) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByEstate(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error)
	UpdateIfVersion(ctx context.Context, payment *domain.Payment, expected int64) error
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByEstate(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error)
	UpdateIfVersion(ctx context.Context, ticket *domain.Ticket, expected int64) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	// ListOpenByTenant returns invoices with an outstanding amount, oldest due first.
	ListOpenByTenant(ctx context.Context, tenantID string) ([]domain.Invoice, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Invoice, error)
	UpdateIfVersion(ctx context.Context, invoice *domain.Invoice, expected int64) error
}

// Directory is the full Directory Store surface consumed by the services.
type Directory interface {
	TxRunner
	Estates() EstateRepository
	Units() UnitRepository
	Persons() PersonRepository
	Payments() PaymentRepository
	Tickets() TicketRepository
	Invoices() InvoiceRepository
}
