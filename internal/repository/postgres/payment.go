package postgres

import (
	"context"
	"database/sql"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const selectPayment = `SELECT id, estate_id, tenant_id, amount_cents, proof_ref, status, created_at,
	decided_at, decided_by, row_version FROM payments`

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, estate_id, tenant_id, amount_cents, proof_ref, status, created_at, row_version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, 1)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.EstateID, p.TenantID, p.AmountCents, p.ProofRef, p.Status, p.CreatedAt)
	if err != nil {
		return duplicate(err)
	}
	p.RowVersion = 1
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(conn(ctx, r.db).QueryRowContext(ctx, selectPayment+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *paymentRepository) ListByEstate(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error) {
	query := selectPayment + ` WHERE estate_id = $1`
	args := []any{estateID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// UpdateIfVersion writes only the decision columns; the rest of a payment is
// immutable after submission.
func (r *paymentRepository) UpdateIfVersion(ctx context.Context, p *domain.Payment, expected int64) error {
	query := `UPDATE payments
	          SET status = $1, decided_at = $2, decided_by = $3, row_version = row_version + 1
	          WHERE id = $4 AND row_version = $5`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.Status, nullTime(p.DecidedAt), nullString(p.DecidedBy), p.ID, expected)
	if err != nil {
		return err
	}
	if err := checkAffected(res, "update_payment"); err != nil {
		return err
	}
	p.RowVersion = expected + 1
	return nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	var decidedAt sql.NullTime
	var decidedBy sql.NullString
	if err := s.Scan(&p.ID, &p.EstateID, &p.TenantID, &p.AmountCents, &p.ProofRef, &p.Status, &p.CreatedAt,
		&decidedAt, &decidedBy, &p.RowVersion); err != nil {
		return nil, err
	}
	p.DecidedAt = timePtr(decidedAt)
	p.DecidedBy = stringPtr(decidedBy)
	return p, nil
}
