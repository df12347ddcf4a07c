// Package engine is the single entry point for workflow commands. It
// authenticates the actor, checks capabilities against freshly read records,
// runs each command in one transaction and reports typed failures.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/identity"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/metrics"
	"estatehub-backend/internal/repository"
	"estatehub-backend/internal/service"
	"estatehub-backend/internal/storage"
)

const notifyTimeout = 5 * time.Second

type Engine struct {
	dir         repository.Directory
	identity    identity.Provider
	occupancy   service.OccupancyService
	ledger      service.PaymentLedger
	maintenance service.MaintenanceTracker
	estates     service.EstateService
	notifier    service.Notifier
	metrics     *metrics.EngineMetrics
}

func New(
	dir repository.Directory,
	ids identity.Provider,
	artifacts storage.ArtifactStore,
	notifier service.Notifier,
	m *metrics.EngineMetrics,
) *Engine {
	return &Engine{
		dir:         dir,
		identity:    ids,
		occupancy:   service.NewOccupancyService(dir),
		ledger:      service.NewPaymentLedger(dir, artifacts),
		maintenance: service.NewMaintenanceTracker(dir, artifacts),
		estates:     service.NewEstateService(dir),
		notifier:    notifier,
		metrics:     m,
	}
}

// effects collects what a command wants to happen after it commits.
type effects struct {
	notes       []note
	transitions []transition
}

type note struct {
	recipientID string
	title       string
	message     string
	attributes  map[string]string
}

type transition struct {
	entity, id string
	from, to   string
}

func (fx *effects) notify(recipientID, title, message string, attrs map[string]string) {
	fx.notes = append(fx.notes, note{recipientID, title, message, attrs})
}

func (fx *effects) moved(entity, id, from, to string) {
	fx.transitions = append(fx.transitions, transition{entity, id, from, to})
}

// currentActor authenticates the caller without touching the store.
func (e *Engine) currentActor(ctx context.Context) (identity.Actor, error) {
	actor, err := e.identity.CurrentActor(ctx)
	if err != nil || actor.ID == "" {
		return identity.Actor{}, domain.ErrUnauthenticated
	}
	return actor, nil
}

// loadActor re-reads the acting person. Role claims in the token are ignored.
func (e *Engine) loadActor(ctx context.Context, actorID string) (*domain.Person, error) {
	p, err := e.dir.Persons().GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: account is not registered", domain.ErrForbidden)
		}
		return nil, err
	}
	return p, nil
}

// mutate runs fn as one write group. Nothing fn wrote survives a failure.
// Writes are never retried.
func (e *Engine) mutate(ctx context.Context, op string, fn func(ctx context.Context, actor *domain.Person, fx *effects) error) error {
	return e.stageAndMutate(ctx, op, nil, fn)
}

// stageAndMutate runs stage with no transaction open, then fn as one write
// group. Artifact uploads go in stage; fn re-checks whatever stage relied on.
func (e *Engine) stageAndMutate(
	ctx context.Context,
	op string,
	stage func(ctx context.Context, actor *domain.Person) error,
	fn func(ctx context.Context, actor *domain.Person, fx *effects) error,
) error {
	start := time.Now()
	logger.EnterMethod(op)

	a, err := e.currentActor(ctx)
	if err != nil {
		return e.finish(op, start, err)
	}

	if stage != nil {
		actor, err := e.loadActor(ctx, a.ID)
		if err == nil {
			err = stage(ctx, actor)
		}
		if err != nil {
			return e.finish(op, start, err)
		}
	}

	fx := &effects{}
	err = e.dir.RunInTx(ctx, func(ctx context.Context) error {
		actor, err := e.loadActor(ctx, a.ID)
		if err != nil {
			return err
		}
		return fn(ctx, actor, fx)
	})
	if err = e.finish(op, start, err); err != nil {
		return err
	}

	e.afterCommit(ctx, fx)
	return nil
}

// query runs a read-only fn. A transient failure is retried once.
func (e *Engine) query(ctx context.Context, op string, fn func(ctx context.Context, actor *domain.Person) error) error {
	start := time.Now()
	logger.EnterMethod(op)

	a, err := e.currentActor(ctx)
	if err != nil {
		return e.finish(op, start, err)
	}

	attempt := func() error {
		actor, err := e.loadActor(ctx, a.ID)
		if err != nil {
			return translate(err)
		}
		return translate(fn(ctx, actor))
	}
	err = attempt()
	if err != nil && domain.Retryable(err) && ctx.Err() == nil {
		e.metrics.ReadRetriesTotal.WithLabelValues(op).Inc()
		logger.Warn("Retrying read after transient failure", "method", op, "error", err)
		err = attempt()
	}
	return e.finish(op, start, err)
}

func (e *Engine) finish(op string, start time.Time, err error) error {
	err = translate(err)
	outcome := "ok"
	if err != nil {
		kind := domain.KindOf(err)
		outcome = string(kind)
		if kind == domain.KindConflict || errors.Is(err, domain.ErrUnitNotVacant) || errors.Is(err, domain.ErrAlreadyDecided) {
			e.metrics.Conflict(op, domain.CodeOf(err))
		}
		logger.ExitMethodWithError(op, err, kind != domain.KindInternal && kind != domain.KindDependency)
	} else {
		logger.ExitMethod(op)
	}
	e.metrics.Observe(op, outcome, time.Since(start))
	return err
}

// translate maps store-level failures onto the workflow taxonomy. Typed
// workflow errors pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var we *domain.WorkflowError
	switch {
	case errors.As(err, &we):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", domain.ErrRecordNotFound, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (e *Engine) afterCommit(ctx context.Context, fx *effects) {
	for _, t := range fx.transitions {
		logger.Transition(t.entity, t.id, t.from, t.to)
		e.metrics.Transition(t.entity, t.to)
	}
	if e.notifier == nil || len(fx.notes) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	for _, n := range fx.notes {
		recipient, err := e.dir.Persons().GetByID(ctx, n.recipientID)
		if err != nil {
			e.metrics.NotifyFailures.Inc()
			logger.Warn("Notification recipient lookup failed", "recipient_id", n.recipientID, "error", err)
			continue
		}
		err = e.notifier.Notify(ctx, domain.Notification{
			RecipientID: recipient.ID,
			Email:       recipient.Email,
			Name:        recipient.Name,
			Title:       n.title,
			Message:     n.message,
			Attributes:  n.attributes,
		})
		if err != nil {
			e.metrics.NotifyFailures.Inc()
			logger.Warn("Notification delivery failed", "recipient_id", n.recipientID, "error", err)
		}
	}
}
