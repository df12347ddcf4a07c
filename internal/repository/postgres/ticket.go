package postgres

import (
	"context"
	"database/sql"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"

	"github.com/lib/pq"
)

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) repository.TicketRepository {
	return &ticketRepository{db: db}
}

const selectTicket = `SELECT id, estate_id, tenant_id, unit_id, category, priority, status, description,
	attachment_refs, created_at, updated_at, resolved_at, row_version FROM tickets`

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	query := `INSERT INTO tickets (id, estate_id, tenant_id, unit_id, category, priority, status, description,
	              attachment_refs, created_at, updated_at, row_version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)`
	refs := t.AttachmentRefs
	if refs == nil {
		refs = []string{}
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		t.ID, t.EstateID, t.TenantID, t.UnitID, t.Category, t.Priority, t.Status, t.Description,
		pq.Array(refs), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return duplicate(err)
	}
	t.RowVersion = 1
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	t, err := scanTicket(conn(ctx, r.db).QueryRowContext(ctx, selectTicket+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *ticketRepository) ListByEstate(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error) {
	query := selectTicket + ` WHERE estate_id = $1`
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

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) UpdateIfVersion(ctx context.Context, t *domain.Ticket, expected int64) error {
	query := `UPDATE tickets
	          SET status = $1, updated_at = $2, resolved_at = $3, row_version = row_version + 1
	          WHERE id = $4 AND row_version = $5`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, t.Status, t.UpdatedAt, nullTime(t.ResolvedAt), t.ID, expected)
	if err != nil {
		return err
	}
	if err := checkAffected(res, "update_ticket"); err != nil {
		return err
	}
	t.RowVersion = expected + 1
	return nil
}

func scanTicket(s scanner) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var resolvedAt sql.NullTime
	var refs pq.StringArray
	if err := s.Scan(&t.ID, &t.EstateID, &t.TenantID, &t.UnitID, &t.Category, &t.Priority, &t.Status, &t.Description,
		&refs, &t.CreatedAt, &t.UpdatedAt, &resolvedAt, &t.RowVersion); err != nil {
		return nil, err
	}
	t.AttachmentRefs = []string(refs)
	t.ResolvedAt = timePtr(resolvedAt)
	return t, nil
}
