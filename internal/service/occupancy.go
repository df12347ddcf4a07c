package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
)

type occupancyService struct {
	dir repository.Directory
	now func() time.Time
}

func NewOccupancyService(dir repository.Directory) OccupancyService {
	return &occupancyService{dir: dir, now: time.Now}
}

func (s *occupancyService) RequestAccess(ctx context.Context, tenantID, estateRef string) (*domain.Person, error) {
	tenant, err := getPerson(ctx, s.dir, tenantID)
	if err != nil {
		return nil, err
	}
	if err := checkCanRequest(tenant); err != nil {
		return nil, err
	}

	estate, err := s.resolveEstate(ctx, estateRef)
	if err != nil {
		return nil, err
	}

	expected := tenant.RowVersion
	now := s.now()
	estateID := estate.ID
	tenant.EstateID = &estateID
	tenant.VerificationStatus = domain.VerificationPending
	tenant.RequestedAt = &now
	tenant.UpdatedAt = now

	if err := s.dir.Persons().UpdateIfVersion(ctx, tenant, expected); err != nil {
		if lostRace(err) {
			return nil, s.classifyRequestRace(ctx, tenantID)
		}
		return nil, fmt.Errorf("failed to record access request: %w", err)
	}
	return tenant, nil
}

func checkCanRequest(tenant *domain.Person) error {
	if tenant.AssignedUnitID != nil {
		return domain.ErrAlreadyAssigned
	}
	if tenant.HasPendingRequest() {
		return domain.ErrAlreadyPending
	}
	return nil
}

// resolveEstate accepts either an estate id or a join code.
func (s *occupancyService) resolveEstate(ctx context.Context, ref string) (*domain.Estate, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrEstateNotFound
	}
	estate, err := s.dir.Estates().GetByID(ctx, ref)
	if err == nil {
		return estate, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get estate: %w", err)
	}
	estate, err = s.dir.Estates().GetByJoinCode(ctx, strings.ToUpper(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve join code: %w", notFoundAs(err, domain.ErrEstateNotFound))
	}
	return estate, nil
}

func (s *occupancyService) classifyRequestRace(ctx context.Context, tenantID string) error {
	fresh, err := getPerson(ctx, s.dir, tenantID)
	if err != nil {
		return err
	}
	if err := checkCanRequest(fresh); err != nil {
		return err
	}
	return domain.ErrConflict
}

func (s *occupancyService) ListVacantUnits(ctx context.Context, estateID string) ([]domain.Unit, error) {
	vacant := domain.UnitStatusVacant
	units, err := s.dir.Units().ListByEstate(ctx, estateID, &vacant)
	if err != nil {
		return nil, fmt.Errorf("failed to list vacant units: %w", err)
	}
	return units, nil
}

func (s *occupancyService) ListPendingRequests(ctx context.Context, estateID string) ([]domain.AccessRequest, error) {
	persons, err := s.dir.Persons().ListPendingByEstate(ctx, estateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}
	requests := make([]domain.AccessRequest, 0, len(persons))
	for i := range persons {
		if req, ok := domain.AccessRequestOf(&persons[i]); ok {
			requests = append(requests, req)
		}
	}
	return requests, nil
}

// ApproveAndAssign verifies a pending tenant into a vacant unit. Both records
// are read fresh and written with conditional updates; the caller's
// transaction discards the first write if the second one fails.
func (s *occupancyService) ApproveAndAssign(ctx context.Context, estateID, tenantID, unitID string) (*domain.Person, *domain.Unit, error) {
	tenant, err := getPerson(ctx, s.dir, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if !tenant.IsTenant() || !tenant.PendingFor(estateID) {
		return nil, nil, domain.ErrRequestNotPending
	}

	unit, err := getUnit(ctx, s.dir, unitID)
	if err != nil {
		return nil, nil, err
	}
	if unit.EstateID != estateID {
		return nil, nil, domain.ErrUnitNotInEstate
	}
	if unit.Status != domain.UnitStatusVacant {
		return nil, nil, domain.ErrUnitNotVacant
	}

	now := s.now()
	unitVersion, tenantVersion := unit.RowVersion, tenant.RowVersion

	unit.Occupy(tenant.ID)
	unit.UpdatedAt = now
	tenant.Assign(unit, now)
	tenant.RequestedAt = nil
	if !unit.Consistent() || !tenant.Consistent() {
		return nil, nil, fmt.Errorf("%w: unit %s", domain.ErrInconsistentState, unit.ID)
	}

	if err := s.dir.Units().UpdateIfVersion(ctx, unit, unitVersion); err != nil {
		if lostRace(err) {
			return nil, nil, s.classifyUnitRace(ctx, unitID)
		}
		return nil, nil, fmt.Errorf("failed to occupy unit: %w", err)
	}
	if err := s.dir.Persons().UpdateIfVersion(ctx, tenant, tenantVersion); err != nil {
		if lostRace(err) {
			return nil, nil, s.classifyPendingRace(ctx, estateID, tenantID)
		}
		return nil, nil, fmt.Errorf("failed to verify tenant: %w", err)
	}
	return tenant, unit, nil
}

// classifyUnitRace turns a lost unit write into UnitNotVacant when another
// approval took the unit, or a plain conflict otherwise.
func (s *occupancyService) classifyUnitRace(ctx context.Context, unitID string) error {
	fresh, err := getUnit(ctx, s.dir, unitID)
	if err != nil {
		return err
	}
	if fresh.Status != domain.UnitStatusVacant {
		return domain.ErrUnitNotVacant
	}
	return domain.ErrConflict
}

func (s *occupancyService) classifyPendingRace(ctx context.Context, estateID, tenantID string) error {
	fresh, err := getPerson(ctx, s.dir, tenantID)
	if err != nil {
		return err
	}
	if !fresh.PendingFor(estateID) {
		return domain.ErrRequestNotPending
	}
	return domain.ErrConflict
}

func (s *occupancyService) DeclineRequest(ctx context.Context, estateID, tenantID string) (*domain.Person, error) {
	tenant, err := getPerson(ctx, s.dir, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsTenant() || !tenant.PendingFor(estateID) {
		return nil, domain.ErrRequestNotPending
	}

	expected := tenant.RowVersion
	tenant.Detach(s.now())
	if err := s.dir.Persons().UpdateIfVersion(ctx, tenant, expected); err != nil {
		if lostRace(err) {
			return nil, s.classifyPendingRace(ctx, estateID, tenantID)
		}
		return nil, fmt.Errorf("failed to decline request: %w", err)
	}
	return tenant, nil
}

// VacateUnit detaches an occupied unit from its tenant. Unit and tenant are
// released together.
func (s *occupancyService) VacateUnit(ctx context.Context, estateID, unitID string) (*domain.Unit, *domain.Person, error) {
	unit, err := getUnit(ctx, s.dir, unitID)
	if err != nil {
		return nil, nil, err
	}
	if unit.EstateID != estateID {
		return nil, nil, domain.ErrUnitNotInEstate
	}
	if unit.Status != domain.UnitStatusOccupied || unit.OccupantID == nil {
		return nil, nil, domain.ErrUnitNotOccupied
	}

	tenant, err := getPerson(ctx, s.dir, *unit.OccupantID)
	if err != nil {
		return nil, nil, err
	}
	if tenant.AssignedUnitID == nil || *tenant.AssignedUnitID != unit.ID {
		return nil, nil, fmt.Errorf("%w: occupant %s of unit %s is assigned elsewhere", domain.ErrInconsistentState, tenant.ID, unit.ID)
	}

	now := s.now()
	unitVersion, tenantVersion := unit.RowVersion, tenant.RowVersion
	unit.Release()
	unit.UpdatedAt = now
	tenant.Detach(now)

	if err := s.dir.Units().UpdateIfVersion(ctx, unit, unitVersion); err != nil {
		if lostRace(err) {
			return nil, nil, domain.ErrConflict
		}
		return nil, nil, fmt.Errorf("failed to release unit: %w", err)
	}
	if err := s.dir.Persons().UpdateIfVersion(ctx, tenant, tenantVersion); err != nil {
		if lostRace(err) {
			return nil, nil, domain.ErrConflict
		}
		return nil, nil, fmt.Errorf("failed to detach tenant: %w", err)
	}
	return unit, tenant, nil
}

// SetUnitMaintenance moves a unit between VACANT and UNDER_MAINTENANCE. An
// occupied unit must be vacated first. Setting the current state is a no-op.
func (s *occupancyService) SetUnitMaintenance(ctx context.Context, estateID, unitID string, underMaintenance bool) (*domain.Unit, error) {
	unit, err := getUnit(ctx, s.dir, unitID)
	if err != nil {
		return nil, err
	}
	if unit.EstateID != estateID {
		return nil, domain.ErrUnitNotInEstate
	}

	target := domain.UnitStatusVacant
	if underMaintenance {
		target = domain.UnitStatusUnderMaintenance
	}
	switch unit.Status {
	case target:
		return unit, nil
	case domain.UnitStatusOccupied:
		return nil, domain.ErrUnitOccupied
	}

	expected := unit.RowVersion
	unit.Status = target
	unit.UpdatedAt = s.now()
	if err := s.dir.Units().UpdateIfVersion(ctx, unit, expected); err != nil {
		if lostRace(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("failed to update unit status: %w", err)
	}
	return unit, nil
}
