package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estatehub-backend/internal/domain"
)

// Artifact is an uploaded file carried into a workflow command. Artifacts are
// stored before the command's write group opens.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (a Artifact) Empty() bool { return len(a.Data) == 0 }

// The services below are scoped by estateID: callers (the engine) resolve and
// authorize the estate before invoking them. Every method reads and writes
// through ctx, so a transaction bound to ctx covers all of its writes.

type OccupancyService interface {
	RequestAccess(ctx context.Context, tenantID, estateRef string) (*domain.Person, error)
	ListVacantUnits(ctx context.Context, estateID string) ([]domain.Unit, error)
	ListPendingRequests(ctx context.Context, estateID string) ([]domain.AccessRequest, error)
	ApproveAndAssign(ctx context.Context, estateID, tenantID, unitID string) (*domain.Person, *domain.Unit, error)
	DeclineRequest(ctx context.Context, estateID, tenantID string) (*domain.Person, error)
	VacateUnit(ctx context.Context, estateID, unitID string) (*domain.Unit, *domain.Person, error)
	SetUnitMaintenance(ctx context.Context, estateID, unitID string, underMaintenance bool) (*domain.Unit, error)
}

type PaymentLedger interface {
	StoreProof(ctx context.Context, tenantID string, proof Artifact) (string, error)
	SubmitPayment(ctx context.Context, tenantID string, amountCents int64, proofRef string) (*domain.Payment, error)
	DecidePayment(ctx context.Context, estateID, managerID, paymentID string, decision domain.PaymentDecision) (*domain.Payment, error)
	ListPayments(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error)
	OutstandingBalance(ctx context.Context, tenantID string) (int64, error)
	IssueInvoice(ctx context.Context, estateID, tenantID string, amountCents int64, description string, dueDate time.Time) (*domain.Invoice, error)
	ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]domain.Invoice, error)
}

type TicketInput struct {
	Category    string
	Priority    domain.TicketPriority
	Description string
}

// Normalize trims the input, defaults the priority and validates it.
func (in *TicketInput) Normalize() error {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if in.Priority == "" {
		in.Priority = domain.TicketPriorityMedium
	}
	switch {
	case in.Category == "":
		return fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	case !in.Priority.Valid():
		return fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, in.Priority)
	}
	return nil
}

type MaintenanceTracker interface {
	StoreAttachments(ctx context.Context, tenantID string, attachments []Artifact) ([]string, error)
	FileTicket(ctx context.Context, tenantID string, in TicketInput, attachmentRefs []string) (*domain.Ticket, error)
	// AdvanceStatus returns the updated ticket and the status it moved from.
	AdvanceStatus(ctx context.Context, estateID, ticketID string, next domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error)
	ListTickets(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error)
}

type EstateService interface {
	RegisterAccount(ctx context.Context, personID string, role domain.Role, name, email string) (*domain.Person, error)
	GetPerson(ctx context.Context, personID string) (*domain.Person, error)
	CreateEstate(ctx context.Context, managerID, name, address string) (*domain.Estate, error)
	GetEstate(ctx context.Context, estateID string) (*domain.Estate, error)
	EstateOfManager(ctx context.Context, managerID string) (*domain.Estate, error)
	CreateUnit(ctx context.Context, estateID, label string, bedroomCount int32, kind string) (*domain.Unit, error)
}

// Notifier delivers best-effort notifications. Callers ignore its errors.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
