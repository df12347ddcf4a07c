package postgres

import (
	"context"
	"database/sql"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
)

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const selectInvoice = `SELECT id, estate_id, tenant_id, amount_cents, paid_cents, description, due_date,
	created_at, row_version FROM invoices`

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (id, estate_id, tenant_id, amount_cents, paid_cents, description, due_date, created_at, row_version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		inv.ID, inv.EstateID, inv.TenantID, inv.AmountCents, inv.PaidCents, inv.Description, inv.DueDate, inv.CreatedAt)
	if err != nil {
		return duplicate(err)
	}
	inv.RowVersion = 1
	return nil
}

func (r *invoiceRepository) ListOpenByTenant(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	query := selectInvoice + ` WHERE tenant_id = $1 AND paid_cents < amount_cents ORDER BY due_date, created_at`
	return r.list(ctx, query, tenantID)
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	query := selectInvoice + ` WHERE due_date < $1 AND paid_cents < amount_cents ORDER BY due_date`
	return r.list(ctx, query, asOf)
}

func (r *invoiceRepository) list(ctx context.Context, query string, arg any) ([]domain.Invoice, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(&inv.ID, &inv.EstateID, &inv.TenantID, &inv.AmountCents, &inv.PaidCents, &inv.Description,
			&inv.DueDate, &inv.CreatedAt, &inv.RowVersion); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepository) UpdateIfVersion(ctx context.Context, inv *domain.Invoice, expected int64) error {
	query := `UPDATE invoices SET paid_cents = $1, row_version = row_version + 1 WHERE id = $2 AND row_version = $3`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, inv.PaidCents, inv.ID, expected)
	if err != nil {
		return err
	}
	if err := checkAffected(res, "update_invoice"); err != nil {
		return err
	}
	inv.RowVersion = expected + 1
	return nil
}
