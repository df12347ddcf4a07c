package postgres

import (
	"context"
	"database/sql"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
)

type personRepository struct {
	db *sql.DB
}

func NewPersonRepository(db *sql.DB) repository.PersonRepository {
	return &personRepository{db: db}
}

const selectPerson = `SELECT id, role, name, email, estate_id, verification_status, assigned_unit_id,
	requested_at, created_at, updated_at, row_version FROM persons`

func (r *personRepository) Create(ctx context.Context, p *domain.Person) error {
	query := `INSERT INTO persons (id, role, name, email, estate_id, verification_status, assigned_unit_id,
	              requested_at, created_at, updated_at, row_version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.Role, p.Name, p.Email, nullString(p.EstateID), p.VerificationStatus, nullString(p.AssignedUnitID),
		nullTime(p.RequestedAt), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return duplicate(err)
	}
	p.RowVersion = 1
	return nil
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	p, err := scanPerson(conn(ctx, r.db).QueryRowContext(ctx, selectPerson+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *personRepository) ListPendingByEstate(ctx context.Context, estateID string) ([]domain.Person, error) {
	query := selectPerson + ` WHERE estate_id = $1 AND verification_status = 'PENDING' ORDER BY requested_at`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, estateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, *p)
	}
	return persons, rows.Err()
}

func (r *personRepository) UpdateIfVersion(ctx context.Context, p *domain.Person, expected int64) error {
	query := `UPDATE persons
	          SET name = $1, email = $2, estate_id = $3, verification_status = $4, assigned_unit_id = $5,
	              requested_at = $6, updated_at = $7, row_version = row_version + 1
	          WHERE id = $8 AND row_version = $9`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.Name, p.Email, nullString(p.EstateID), p.VerificationStatus, nullString(p.AssignedUnitID),
		nullTime(p.RequestedAt), p.UpdatedAt, p.ID, expected)
	if err != nil {
		return duplicate(err)
	}
	if err := checkAffected(res, "update_person"); err != nil {
		return err
	}
	p.RowVersion = expected + 1
	return nil
}

func scanPerson(s scanner) (*domain.Person, error) {
	p := &domain.Person{}
	var estateID, unitID sql.NullString
	var requestedAt sql.NullTime
	if err := s.Scan(&p.ID, &p.Role, &p.Name, &p.Email, &estateID, &p.VerificationStatus, &unitID,
		&requestedAt, &p.CreatedAt, &p.UpdatedAt, &p.RowVersion); err != nil {
		return nil, err
	}
	p.EstateID = stringPtr(estateID)
	p.AssignedUnitID = stringPtr(unitID)
	p.RequestedAt = timePtr(requestedAt)
	return p, nil
}
