package postgres

import (
	"context"
	"database/sql"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
)

type estateRepository struct {
	db *sql.DB
}

func NewEstateRepository(db *sql.DB) repository.EstateRepository {
	return &estateRepository{db: db}
}

const selectEstate = `SELECT id, name, address, manager_id, join_code, created_at FROM estates`

func (r *estateRepository) Create(ctx context.Context, e *domain.Estate) error {
	query := `INSERT INTO estates (id, name, address, manager_id, join_code, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, e.ID, e.Name, e.Address, e.ManagerID, e.JoinCode, e.CreatedAt)
	return duplicate(err)
}

func (r *estateRepository) GetByID(ctx context.Context, id string) (*domain.Estate, error) {
	return r.getOne(ctx, selectEstate+` WHERE id = $1`, id)
}

func (r *estateRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Estate, error) {
	return r.getOne(ctx, selectEstate+` WHERE join_code = $1`, code)
}

func (r *estateRepository) GetByManager(ctx context.Context, managerID string) (*domain.Estate, error) {
	return r.getOne(ctx, selectEstate+` WHERE manager_id = $1`, managerID)
}

func (r *estateRepository) getOne(ctx context.Context, query string, arg string) (*domain.Estate, error) {
	e := &domain.Estate{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, arg).
		Scan(&e.ID, &e.Name, &e.Address, &e.ManagerID, &e.JoinCode, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}
