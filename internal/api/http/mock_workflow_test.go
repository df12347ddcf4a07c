package http

import (
	"context"
	"io"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockWorkflow
type MockWorkflow struct {
	mock.Mock
}

func (m *MockWorkflow) RegisterAccount(ctx context.Context, role domain.Role, name, email string) (*domain.Person, error) {
	args := m.Called(ctx, role, name, email)
	return personArg(args, 0), args.Error(1)
}

func (m *MockWorkflow) Me(ctx context.Context) (*domain.Person, *domain.Estate, error) {
	args := m.Called(ctx)
	return personArg(args, 0), estateArg(args, 1), args.Error(2)
}

func (m *MockWorkflow) CreateEstate(ctx context.Context, name, address string) (*domain.Estate, error) {
	args := m.Called(ctx, name, address)
	return estateArg(args, 0), args.Error(1)
}

func (m *MockWorkflow) CreateUnit(ctx context.Context, estateID, label string, bedroomCount int32, kind string) (*domain.Unit, error) {
	args := m.Called(ctx, estateID, label, bedroomCount, kind)
	return unitArg(args, 0), args.Error(1)
}

func (m *MockWorkflow) RequestAccess(ctx context.Context, estateRef string) (*domain.Person, error) {
	args := m.Called(ctx, estateRef)
	return personArg(args, 0), args.Error(1)
}

func (m *MockWorkflow) ListVacantUnits(ctx context.Context, estateID string) ([]domain.Unit, error) {
	args := m.Called(ctx, estateID)
	units, _ := args.Get(0).([]domain.Unit)
	return units, args.Error(1)
}

func (m *MockWorkflow) ListPendingRequests(ctx context.Context, estateID string) ([]domain.AccessRequest, error) {
	args := m.Called(ctx, estateID)
	reqs, _ := args.Get(0).([]domain.AccessRequest)
	return reqs, args.Error(1)
}

func (m *MockWorkflow) ApproveAndAssign(ctx context.Context, tenantID, unitID string) (*domain.Person, *domain.Unit, error) {
	args := m.Called(ctx, tenantID, unitID)
	return personArg(args, 0), unitArg(args, 1), args.Error(2)
}

func (m *MockWorkflow) DeclineRequest(ctx context.Context, tenantID string) (*domain.Person, error) {
	args := m.Called(ctx, tenantID)
	return personArg(args, 0), args.Error(1)
}

func (m *MockWorkflow) VacateUnit(ctx context.Context, unitID string) (*domain.Unit, *domain.Person, error) {
	args := m.Called(ctx, unitID)
	return unitArg(args, 0), personArg(args, 1), args.Error(2)
}

func (m *MockWorkflow) SetUnitMaintenance(ctx context.Context, unitID string, underMaintenance bool) (*domain.Unit, error) {
	args := m.Called(ctx, unitID, underMaintenance)
	return unitArg(args, 0), args.Error(1)
}

func (m *MockWorkflow) SubmitPayment(ctx context.Context, amountCents int64, proof service.Artifact) (*domain.Payment, error) {
	args := m.Called(ctx, amountCents, proof)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *MockWorkflow) DecidePayment(ctx context.Context, paymentID string, decision domain.PaymentDecision) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID, decision)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *MockWorkflow) ListPayments(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error) {
	args := m.Called(ctx, estateID, status)
	payments, _ := args.Get(0).([]domain.Payment)
	return payments, args.Error(1)
}

func (m *MockWorkflow) OutstandingBalance(ctx context.Context, tenantID string) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWorkflow) IssueInvoice(ctx context.Context, tenantID string, amountCents int64, description string, dueDate time.Time) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, amountCents, description, dueDate)
	inv, _ := args.Get(0).(*domain.Invoice)
	return inv, args.Error(1)
}

func (m *MockWorkflow) ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, asOf)
	invoices, _ := args.Get(0).([]domain.Invoice)
	return invoices, args.Error(1)
}

func (m *MockWorkflow) FileTicket(ctx context.Context, in service.TicketInput, attachments []service.Artifact) (*domain.Ticket, error) {
	args := m.Called(ctx, in, attachments)
	t, _ := args.Get(0).(*domain.Ticket)
	return t, args.Error(1)
}

func (m *MockWorkflow) AdvanceStatus(ctx context.Context, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID, next)
	t, _ := args.Get(0).(*domain.Ticket)
	return t, args.Error(1)
}

func (m *MockWorkflow) ListTickets(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error) {
	args := m.Called(ctx, estateID, status)
	tickets, _ := args.Get(0).([]domain.Ticket)
	return tickets, args.Error(1)
}

func personArg(args mock.Arguments, i int) *domain.Person {
	p, _ := args.Get(i).(*domain.Person)
	return p
}

func estateArg(args mock.Arguments, i int) *domain.Estate {
	e, _ := args.Get(i).(*domain.Estate)
	return e
}

func unitArg(args mock.Arguments, i int) *domain.Unit {
	u, _ := args.Get(i).(*domain.Unit)
	return u
}

// MockArtifactReader
type MockArtifactReader struct {
	mock.Mock
}

func (m *MockArtifactReader) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.String(1), args.Error(2)
}
