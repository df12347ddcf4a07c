package jobs

import (
	"context"
	"fmt"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/utils"
)

// SendInvoiceReminders notifies tenants whose invoices are past due by more
// than the configured grace period.
func (jr *JobRunner) SendInvoiceReminders() {
	jr.runWithRecovery("SendInvoiceReminders", func(ctx context.Context) {
		grace := time.Duration(jr.config.Scheduler.ReminderGraceDays) * 24 * time.Hour
		asOf := jr.now().Add(-grace)

		invoices, err := jr.services.Ledger.ListOverdueInvoices(ctx, asOf)
		if err != nil {
			logger.Error("Failed to list overdue invoices", "error", err)
			return
		}

		sent, failed := 0, 0
		for _, inv := range invoices {
			tenant, err := jr.services.Estates.GetPerson(ctx, inv.TenantID)
			if err != nil {
				logger.Error("Failed to load invoice tenant", "invoice_id", inv.ID, "tenant_id", inv.TenantID, "error", err)
				failed++
				continue
			}

			err = jr.services.Notifier.Notify(ctx, reminderFor(tenant, inv))
			if err != nil {
				logger.Error("Failed to send invoice reminder", "invoice_id", inv.ID, "tenant_id", inv.TenantID, "error", err)
				failed++
				continue
			}
			sent++
		}

		logger.Info("Invoice reminders processed", "overdue", len(invoices), "sent", sent, "failed", failed)
	})
}

func reminderFor(tenant *domain.Person, inv domain.Invoice) domain.Notification {
	outstanding := inv.OutstandingCents()
	return domain.Notification{
		RecipientID: tenant.ID,
		Email:       tenant.Email,
		Name:        tenant.Name,
		Title:       "Invoice overdue",
		Message: fmt.Sprintf("Your invoice %q was due on %s. %s is still outstanding.",
			inv.Description, utils.FormatDate(inv.DueDate), utils.FormatCents(outstanding)),
		Attributes: map[string]string{
			"invoice_id":        inv.ID,
			"outstanding_cents": fmt.Sprintf("%d", outstanding),
		},
	}
}
