package service

import (
	"context"
	"fmt"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/repository"
	"estatehub-backend/internal/storage"

	"github.com/google/uuid"
)

const (
	proofFolder      = "payments"
	attachmentFolder = "tickets"
)

type paymentLedger struct {
	dir       repository.Directory
	artifacts storage.ArtifactStore
	now       func() time.Time
}

func NewPaymentLedger(dir repository.Directory, artifacts storage.ArtifactStore) PaymentLedger {
	return &paymentLedger{dir: dir, artifacts: artifacts, now: time.Now}
}

// StoreProof uploads a payment proof for an assigned tenant and returns its
// reference. It must run outside any write group; SubmitPayment records the
// reference afterwards.
func (s *paymentLedger) StoreProof(ctx context.Context, tenantID string, proof Artifact) (string, error) {
	if proof.Empty() {
		return "", domain.ErrMissingProof
	}
	if _, err := assignedTenant(ctx, s.dir, tenantID); err != nil {
		return "", err
	}

	proofRef, err := s.artifacts.Store(ctx, proof.Data, proofFolder, proof.ContentType)
	if err != nil {
		return "", uploadError(err)
	}
	return proofRef, nil
}

// SubmitPayment records a pending payment for an already stored proof. The
// tenant's assignment is read again, since it may have changed during the
// upload.
func (s *paymentLedger) SubmitPayment(ctx context.Context, tenantID string, amountCents int64, proofRef string) (*domain.Payment, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if proofRef == "" {
		return nil, domain.ErrMissingProof
	}

	tenant, err := assignedTenant(ctx, s.dir, tenantID)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:          uuid.NewString(),
		EstateID:    *tenant.EstateID,
		TenantID:    tenant.ID,
		AmountCents: amountCents,
		ProofRef:    proofRef,
		Status:      domain.PaymentStatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.dir.Payments().Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

// DecidePayment moves a pending payment to its terminal status. Approval
// settles the tenant's open invoices, oldest due first, within the same
// transaction.
func (s *paymentLedger) DecidePayment(ctx context.Context, estateID, managerID, paymentID string, decision domain.PaymentDecision) (*domain.Payment, error) {
	next, ok := decision.Status()
	if !ok {
		return nil, domain.ErrInvalidDecision
	}

	payment, err := s.dir.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", notFoundAs(err, domain.ErrPaymentNotFound))
	}
	if payment.EstateID != estateID {
		return nil, domain.ErrForbidden
	}
	if !domain.PaymentTransitions.Allowed(payment.Status, next) {
		return nil, domain.ErrAlreadyDecided
	}

	expected := payment.RowVersion
	now := s.now()
	payment.Status = next
	payment.DecidedAt = &now
	payment.DecidedBy = &managerID

	if err := s.dir.Payments().UpdateIfVersion(ctx, payment, expected); err != nil {
		if lostRace(err) {
			return nil, s.classifyDecisionRace(ctx, paymentID)
		}
		return nil, fmt.Errorf("failed to decide payment: %w", err)
	}

	if next == domain.PaymentStatusApproved {
		if err := s.settle(ctx, payment.TenantID, payment.AmountCents); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

func (s *paymentLedger) classifyDecisionRace(ctx context.Context, paymentID string) error {
	fresh, err := s.dir.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", notFoundAs(err, domain.ErrPaymentNotFound))
	}
	if fresh.Decided() {
		return domain.ErrAlreadyDecided
	}
	return domain.ErrConflict
}

// settle applies amount to open invoices. Any surplus beyond the open total is
// not carried forward.
func (s *paymentLedger) settle(ctx context.Context, tenantID string, amount int64) error {
	invoices, err := s.dir.Invoices().ListOpenByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list open invoices: %w", err)
	}

	remaining := amount
	for i := range invoices {
		if remaining == 0 {
			break
		}
		inv := &invoices[i]
		expected := inv.RowVersion
		used := inv.Apply(remaining)
		if used == 0 {
			continue
		}
		if err := s.dir.Invoices().UpdateIfVersion(ctx, inv, expected); err != nil {
			if lostRace(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("failed to settle invoice: %w", err)
		}
		remaining -= used
	}
	if remaining > 0 {
		logger.Info("Approved payment exceeds open invoices", "tenant_id", tenantID, "unapplied_cents", remaining)
	}
	return nil
}

func (s *paymentLedger) ListPayments(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error) {
	if status != nil && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	payments, err := s.dir.Payments().ListByEstate(ctx, estateID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// OutstandingBalance sums what the tenant still owes on invoices.
func (s *paymentLedger) OutstandingBalance(ctx context.Context, tenantID string) (int64, error) {
	invoices, err := s.dir.Invoices().ListOpenByTenant(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list open invoices: %w", err)
	}
	var total int64
	for i := range invoices {
		total += invoices[i].OutstandingCents()
	}
	return total, nil
}

func (s *paymentLedger) IssueInvoice(ctx context.Context, estateID, tenantID string, amountCents int64, description string, dueDate time.Time) (*domain.Invoice, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if dueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", domain.ErrInvalidInput)
	}

	tenant, err := getPerson(ctx, s.dir, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsTenant() || !tenant.BelongsTo(estateID) || tenant.AssignedUnitID == nil {
		return nil, domain.ErrNoAssignedUnit
	}

	invoice := &domain.Invoice{
		ID:          uuid.NewString(),
		EstateID:    estateID,
		TenantID:    tenantID,
		AmountCents: amountCents,
		Description: description,
		DueDate:     dueDate,
		CreatedAt:   s.now(),
	}
	if err := s.dir.Invoices().Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoice, nil
}

func (s *paymentLedger) ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	invoices, err := s.dir.Invoices().ListOverdue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue invoices: %w", err)
	}
	return invoices, nil
}
