package postgres

import (
	"context"
	"database/sql"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/repository"
)

type unitRepository struct {
	db *sql.DB
}

func NewUnitRepository(db *sql.DB) repository.UnitRepository {
	return &unitRepository{db: db}
}

const selectUnit = `SELECT id, estate_id, label, bedroom_count, kind, status, occupant_id, created_at, updated_at, row_version FROM units`

func (r *unitRepository) Create(ctx context.Context, u *domain.Unit) error {
	query := `INSERT INTO units (id, estate_id, label, bedroom_count, kind, status, occupant_id, created_at, updated_at, row_version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		u.ID, u.EstateID, u.Label, u.BedroomCount, u.Kind, u.Status, nullString(u.OccupantID), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return duplicate(err)
	}
	u.RowVersion = 1
	return nil
}

func (r *unitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, selectUnit+` WHERE id = $1`, id)
	u, err := scanUnit(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *unitRepository) ListByEstate(ctx context.Context, estateID string, status *domain.UnitStatus) ([]domain.Unit, error) {
	query := selectUnit + ` WHERE estate_id = $1`
	args := []any{estateID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY label`

	logger.DatabaseCall("list_units", query, "estate_id", estateID)
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []domain.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

func (r *unitRepository) UpdateIfVersion(ctx context.Context, u *domain.Unit, expected int64) error {
	query := `UPDATE units
	          SET label = $1, bedroom_count = $2, kind = $3, status = $4, occupant_id = $5,
	              updated_at = $6, row_version = row_version + 1
	          WHERE id = $7 AND row_version = $8`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		u.Label, u.BedroomCount, u.Kind, u.Status, nullString(u.OccupantID), u.UpdatedAt, u.ID, expected)
	if err != nil {
		return duplicate(err)
	}
	if err := checkAffected(res, "update_unit"); err != nil {
		return err
	}
	u.RowVersion = expected + 1
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUnit(s scanner) (*domain.Unit, error) {
	u := &domain.Unit{}
	var occupant sql.NullString
	if err := s.Scan(&u.ID, &u.EstateID, &u.Label, &u.BedroomCount, &u.Kind, &u.Status, &occupant,
		&u.CreatedAt, &u.UpdatedAt, &u.RowVersion); err != nil {
		return nil, err
	}
	u.OccupantID = stringPtr(occupant)
	return u, nil
}
