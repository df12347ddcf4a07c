package engine

import (
	"context"
	"fmt"

	"estatehub-backend/internal/domain"
)

// RequestAccess files the acting tenant's request to join an estate, by id or
// join code.
func (e *Engine) RequestAccess(ctx context.Context, estateRef string) (*domain.Person, error) {
	var out *domain.Person
	err := e.mutate(ctx, "RequestAccess", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		if err := requireTenant(actor); err != nil {
			return err
		}
		from := actor.VerificationStatus
		tenant, err := e.occupancy.RequestAccess(ctx, actor.ID, estateRef)
		if err != nil {
			return err
		}
		fx.moved("person", tenant.ID, string(from), string(tenant.VerificationStatus))

		estate, err := e.estates.GetEstate(ctx, *tenant.EstateID)
		if err != nil {
			return err
		}
		fx.notify(estate.ManagerID, "New access request",
			fmt.Sprintf("%s asked to join %s.", tenant.Name, estate.Name),
			map[string]string{"type": "ACCESS_REQUEST", "tenant_id": tenant.ID, "estate_id": estate.ID})
		out = tenant
		return nil
	})
	return out, err
}

func (e *Engine) ListVacantUnits(ctx context.Context, estateID string) ([]domain.Unit, error) {
	var out []domain.Unit
	err := e.query(ctx, "ListVacantUnits", func(ctx context.Context, actor *domain.Person) error {
		if _, err := e.estateView(ctx, actor, estateID); err != nil {
			return err
		}
		units, err := e.occupancy.ListVacantUnits(ctx, estateID)
		out = units
		return err
	})
	return out, err
}

func (e *Engine) ListPendingRequests(ctx context.Context, estateID string) ([]domain.AccessRequest, error) {
	var out []domain.AccessRequest
	err := e.query(ctx, "ListPendingRequests", func(ctx context.Context, actor *domain.Person) error {
		if _, err := e.requireManagerOf(ctx, actor, estateID); err != nil {
			return err
		}
		requests, err := e.occupancy.ListPendingRequests(ctx, estateID)
		out = requests
		return err
	})
	return out, err
}

// ApproveAndAssign verifies a pending tenant of the acting manager's estate
// into a vacant unit. Tenant and unit are written together or not at all;
// when several approvals race for one unit the first commit wins and the
// others fail with ErrUnitNotVacant.
func (e *Engine) ApproveAndAssign(ctx context.Context, tenantID, unitID string) (*domain.Person, *domain.Unit, error) {
	var person *domain.Person
	var unit *domain.Unit
	err := e.mutate(ctx, "ApproveAndAssign", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		p, u, err := e.occupancy.ApproveAndAssign(ctx, estate.ID, tenantID, unitID)
		if err != nil {
			return err
		}
		fx.moved("person", p.ID, string(domain.VerificationPending), string(p.VerificationStatus))
		fx.moved("unit", u.ID, string(domain.UnitStatusVacant), string(u.Status))
		fx.notify(p.ID, "Access approved",
			fmt.Sprintf("Your request to join %s was approved. You have been assigned unit %s.", estate.Name, u.Label),
			map[string]string{"type": "ACCESS_APPROVED", "estate_id": estate.ID, "unit_id": u.ID})
		person, unit = p, u
		return nil
	})
	return person, unit, err
}

func (e *Engine) DeclineRequest(ctx context.Context, tenantID string) (*domain.Person, error) {
	var out *domain.Person
	err := e.mutate(ctx, "DeclineRequest", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		p, err := e.occupancy.DeclineRequest(ctx, estate.ID, tenantID)
		if err != nil {
			return err
		}
		fx.moved("person", p.ID, string(domain.VerificationPending), string(p.VerificationStatus))
		fx.notify(p.ID, "Access request declined",
			fmt.Sprintf("Your request to join %s was declined.", estate.Name),
			map[string]string{"type": "ACCESS_DECLINED", "estate_id": estate.ID})
		out = p
		return nil
	})
	return out, err
}

// VacateUnit releases an occupied unit of the acting manager's estate and
// detaches its tenant in the same write group.
func (e *Engine) VacateUnit(ctx context.Context, unitID string) (*domain.Unit, *domain.Person, error) {
	var unit *domain.Unit
	var person *domain.Person
	err := e.mutate(ctx, "VacateUnit", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		u, p, err := e.occupancy.VacateUnit(ctx, estate.ID, unitID)
		if err != nil {
			return err
		}
		fx.moved("unit", u.ID, string(domain.UnitStatusOccupied), string(u.Status))
		fx.moved("person", p.ID, string(domain.VerificationVerified), string(p.VerificationStatus))
		fx.notify(p.ID, "Unit vacated",
			fmt.Sprintf("Your occupancy of unit %s at %s has ended.", u.Label, estate.Name),
			map[string]string{"type": "UNIT_VACATED", "unit_id": u.ID})
		unit, person = u, p
		return nil
	})
	return unit, person, err
}

func (e *Engine) SetUnitMaintenance(ctx context.Context, unitID string, underMaintenance bool) (*domain.Unit, error) {
	var out *domain.Unit
	err := e.mutate(ctx, "SetUnitMaintenance", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		u, err := e.occupancy.SetUnitMaintenance(ctx, estate.ID, unitID, underMaintenance)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}
