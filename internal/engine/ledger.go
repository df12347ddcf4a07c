package engine

import (
	"context"
	"fmt"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/service"
	"estatehub-backend/internal/utils"
)

// SubmitPayment records a payment proof for the acting tenant's estate.
func (e *Engine) SubmitPayment(ctx context.Context, amountCents int64, proof service.Artifact) (*domain.Payment, error) {
	// Input is checked before the store is touched.
	if amountCents <= 0 {
		return nil, e.rejectInput("SubmitPayment", domain.ErrInvalidAmount)
	}
	if proof.Empty() {
		return nil, e.rejectInput("SubmitPayment", domain.ErrMissingProof)
	}

	var (
		out      *domain.Payment
		proofRef string
	)
	upload := func(ctx context.Context, actor *domain.Person) error {
		if err := requireTenant(actor); err != nil {
			return err
		}
		ref, err := e.ledger.StoreProof(ctx, actor.ID, proof)
		proofRef = ref
		return err
	}
	err := e.stageAndMutate(ctx, "SubmitPayment", upload, func(ctx context.Context, actor *domain.Person, fx *effects) error {
		if err := requireTenant(actor); err != nil {
			return err
		}
		p, err := e.ledger.SubmitPayment(ctx, actor.ID, amountCents, proofRef)
		if err != nil {
			return err
		}
		estate, err := e.estates.GetEstate(ctx, p.EstateID)
		if err != nil {
			return err
		}
		fx.notify(estate.ManagerID, "New payment submitted",
			fmt.Sprintf("%s submitted a payment of %s for review.", actor.Name, utils.FormatCents(p.AmountCents)),
			map[string]string{"type": "PAYMENT_SUBMITTED", "payment_id": p.ID})
		out = p
		return nil
	})
	return out, err
}

// DecidePayment approves or rejects a pending payment of the acting manager's
// estate. A decided payment never changes again.
func (e *Engine) DecidePayment(ctx context.Context, paymentID string, decision domain.PaymentDecision) (*domain.Payment, error) {
	if _, ok := decision.Status(); !ok {
		return nil, e.rejectInput("DecidePayment", domain.ErrInvalidDecision)
	}

	var out *domain.Payment
	err := e.mutate(ctx, "DecidePayment", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		p, err := e.ledger.DecidePayment(ctx, estate.ID, actor.ID, paymentID, decision)
		if err != nil {
			return err
		}
		fx.moved("payment", p.ID, string(domain.PaymentStatusPending), string(p.Status))
		fx.notify(p.TenantID, "Payment "+statusWord(string(p.Status)),
			fmt.Sprintf("Your payment of %s was %s.", utils.FormatCents(p.AmountCents), statusWord(string(p.Status))),
			map[string]string{"type": "PAYMENT_DECIDED", "payment_id": p.ID, "status": string(p.Status)})
		out = p
		return nil
	})
	return out, err
}

// ListPayments lists an estate's payments. Tenants only see their own.
func (e *Engine) ListPayments(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error) {
	var out []domain.Payment
	err := e.query(ctx, "ListPayments", func(ctx context.Context, actor *domain.Person) error {
		ownOnly, err := e.estateView(ctx, actor, estateID)
		if err != nil {
			return err
		}
		payments, err := e.ledger.ListPayments(ctx, estateID, status)
		if err != nil {
			return err
		}
		if ownOnly {
			payments = filter(payments, func(p domain.Payment) bool { return p.TenantID == actor.ID })
		}
		out = payments
		return nil
	})
	return out, err
}

// OutstandingBalance is readable by the tenant and by their estate's manager.
func (e *Engine) OutstandingBalance(ctx context.Context, tenantID string) (int64, error) {
	var out int64
	err := e.query(ctx, "OutstandingBalance", func(ctx context.Context, actor *domain.Person) error {
		if actor.ID != tenantID {
			tenant, err := e.estates.GetPerson(ctx, tenantID)
			if err != nil {
				return err
			}
			if tenant.EstateID == nil {
				return domain.ErrForbidden
			}
			if _, err := e.requireManagerOf(ctx, actor, *tenant.EstateID); err != nil {
				return err
			}
		}
		balance, err := e.ledger.OutstandingBalance(ctx, tenantID)
		out = balance
		return err
	})
	return out, err
}

func (e *Engine) IssueInvoice(ctx context.Context, tenantID string, amountCents int64, description string, dueDate time.Time) (*domain.Invoice, error) {
	if amountCents <= 0 {
		return nil, e.rejectInput("IssueInvoice", domain.ErrInvalidAmount)
	}

	var out *domain.Invoice
	err := e.mutate(ctx, "IssueInvoice", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		inv, err := e.ledger.IssueInvoice(ctx, estate.ID, tenantID, amountCents, description, dueDate)
		if err != nil {
			return err
		}
		fx.notify(tenantID, "New invoice",
			fmt.Sprintf("%s issued an invoice of %s due %s.", estate.Name, utils.FormatCents(inv.AmountCents), utils.FormatDate(inv.DueDate)),
			map[string]string{"type": "INVOICE_ISSUED", "invoice_id": inv.ID})
		out = inv
		return nil
	})
	return out, err
}

// ListOverdueInvoices lists the acting manager's overdue invoices as of asOf.
func (e *Engine) ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := e.query(ctx, "ListOverdueInvoices", func(ctx context.Context, actor *domain.Person) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		invoices, err := e.ledger.ListOverdueInvoices(ctx, asOf)
		if err != nil {
			return err
		}
		out = filter(invoices, func(inv domain.Invoice) bool { return inv.EstateID == estate.ID })
		return nil
	})
	return out, err
}

// rejectInput reports a validation failure detected before any store access.
func (e *Engine) rejectInput(op string, err error) error {
	return e.finish(op, time.Now(), err)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func statusWord(status string) string {
	switch status {
	case string(domain.PaymentStatusApproved):
		return "approved"
	case string(domain.PaymentStatusRejected):
		return "rejected"
	case string(domain.TicketStatusInProgress):
		return "in progress"
	case string(domain.TicketStatusResolved):
		return "resolved"
	}
	return status
}
