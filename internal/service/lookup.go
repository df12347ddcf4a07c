package service

import (
	"context"
	"errors"
	"fmt"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
	"estatehub-backend/internal/storage"
)

// notFoundAs replaces repository.ErrNotFound with the typed not-found error
// of the collection; other errors pass through.
func notFoundAs(err error, typed error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return typed
	}
	return err
}

func getPerson(ctx context.Context, dir repository.Directory, id string) (*domain.Person, error) {
	p, err := dir.Persons().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", notFoundAs(err, domain.ErrPersonNotFound))
	}
	return p, nil
}

// assignedTenant loads a tenant that currently occupies a unit.
func assignedTenant(ctx context.Context, dir repository.Directory, id string) (*domain.Person, error) {
	tenant, err := getPerson(ctx, dir, id)
	if err != nil {
		return nil, err
	}
	if tenant.AssignedUnitID == nil || tenant.EstateID == nil {
		return nil, domain.ErrNoAssignedUnit
	}
	return tenant, nil
}

func getUnit(ctx context.Context, dir repository.Directory, id string) (*domain.Unit, error) {
	u, err := dir.Units().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", notFoundAs(err, domain.ErrUnitNotFound))
	}
	return u, nil
}

// lostRace reports whether err is a zero-row conditional write.
func lostRace(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict)
}

// uploadError classifies an artifact store failure. Rejected content is the
// caller's input problem; anything else is a failed dependency.
func uploadError(err error) error {
	if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
}
