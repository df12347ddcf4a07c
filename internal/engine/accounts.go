package engine

import (
	"context"
	"errors"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"
)

// RegisterAccount creates the directory record for the authenticated caller.
// It is the only command that runs without an existing Person.
func (e *Engine) RegisterAccount(ctx context.Context, role domain.Role, name, email string) (*domain.Person, error) {
	const op = "RegisterAccount"
	start := time.Now()
	logger.EnterMethod(op)

	a, err := e.currentActor(ctx)
	if err != nil {
		return nil, e.finish(op, start, err)
	}

	var out *domain.Person
	err = e.dir.RunInTx(ctx, func(ctx context.Context) error {
		p, err := e.estates.RegisterAccount(ctx, a.ID, role, name, email)
		out = p
		return err
	})
	if err := e.finish(op, start, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Me returns the caller's own record together with the estate they manage
// or belong to, if any.
func (e *Engine) Me(ctx context.Context) (*domain.Person, *domain.Estate, error) {
	var person *domain.Person
	var estate *domain.Estate
	err := e.query(ctx, "Me", func(ctx context.Context, actor *domain.Person) error {
		person = actor
		var err error
		switch {
		case actor.IsManager():
			estate, err = e.estates.EstateOfManager(ctx, actor.ID)
		case actor.EstateID != nil:
			estate, err = e.estates.GetEstate(ctx, *actor.EstateID)
		}
		if errors.Is(err, domain.ErrEstateNotFound) {
			estate, err = nil, nil
		}
		return err
	})
	return person, estate, err
}

// CreateEstate registers the acting manager's single estate and issues its
// join code.
func (e *Engine) CreateEstate(ctx context.Context, name, address string) (*domain.Estate, error) {
	var out *domain.Estate
	err := e.mutate(ctx, "CreateEstate", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		if err := requireManager(actor); err != nil {
			return err
		}
		estate, err := e.estates.CreateEstate(ctx, actor.ID, name, address)
		out = estate
		return err
	})
	return out, err
}

// CreateUnit adds a vacant unit to an estate the actor manages.
func (e *Engine) CreateUnit(ctx context.Context, estateID, label string, bedroomCount int32, kind string) (*domain.Unit, error) {
	var out *domain.Unit
	err := e.mutate(ctx, "CreateUnit", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		if _, err := e.requireManagerOf(ctx, actor, estateID); err != nil {
			return err
		}
		unit, err := e.estates.CreateUnit(ctx, estateID, label, bedroomCount, kind)
		out = unit
		return err
	})
	return out, err
}
