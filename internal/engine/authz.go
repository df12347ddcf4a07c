package engine

import (
	"context"
	"errors"
	"fmt"

	"estatehub-backend/internal/domain"
)

// Capability checks. Each reads the records it needs through ctx, so inside
// a write group they see the same state the command will modify.

func requireTenant(actor *domain.Person) error {
	if !actor.IsTenant() {
		return fmt.Errorf("%w: tenant role required", domain.ErrForbidden)
	}
	return nil
}

func requireManager(actor *domain.Person) error {
	if !actor.IsManager() {
		return fmt.Errorf("%w: manager role required", domain.ErrForbidden)
	}
	return nil
}

// managedEstate returns the estate the acting manager owns.
func (e *Engine) managedEstate(ctx context.Context, actor *domain.Person) (*domain.Estate, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	estate, err := e.estates.EstateOfManager(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrEstateNotFound) {
			return nil, fmt.Errorf("%w: manager has no estate", domain.ErrForbidden)
		}
		return nil, err
	}
	return estate, nil
}

// requireManagerOf checks that the actor owns estateID.
func (e *Engine) requireManagerOf(ctx context.Context, actor *domain.Person, estateID string) (*domain.Estate, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	estate, err := e.estates.GetEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}
	if !estate.IsManagedBy(actor.ID) {
		return nil, domain.ErrForbidden
	}
	return estate, nil
}

// estateView decides how much of an estate's records the actor may read: the
// manager sees everything, an affiliated tenant only their own records.
func (e *Engine) estateView(ctx context.Context, actor *domain.Person, estateID string) (ownOnly bool, err error) {
	if actor.IsManager() {
		if _, err := e.requireManagerOf(ctx, actor, estateID); err != nil {
			return false, err
		}
		return false, nil
	}
	if actor.IsTenant() && actor.BelongsTo(estateID) {
		return true, nil
	}
	return false, domain.ErrForbidden
}
