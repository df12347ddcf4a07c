package service

import (
	"context"
	"testing"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
	"estatehub-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The repositories below let a competing writer commit between the caller's
// read and its conditional write, which then matches no row, the way a
// zero-row UPDATE ... WHERE row_version = $n does on postgres.

type racingUnits struct {
	repository.UnitRepository
	competitor func(ctx context.Context)
}

func (r racingUnits) UpdateIfVersion(ctx context.Context, u *domain.Unit, expected int64) error {
	r.competitor(ctx)
	return repository.ErrVersionConflict
}

type racingPayments struct {
	repository.PaymentRepository
	competitor func(ctx context.Context)
}

func (r racingPayments) UpdateIfVersion(ctx context.Context, p *domain.Payment, expected int64) error {
	r.competitor(ctx)
	return repository.ErrVersionConflict
}

type racingTickets struct {
	repository.TicketRepository
	competitor func(ctx context.Context)
}

func (r racingTickets) UpdateIfVersion(ctx context.Context, tk *domain.Ticket, expected int64) error {
	r.competitor(ctx)
	return repository.ErrVersionConflict
}

type racingDirectory struct {
	*memory.Store
	units    repository.UnitRepository
	payments repository.PaymentRepository
	tickets  repository.TicketRepository
}

func (d racingDirectory) Units() repository.UnitRepository {
	if d.units != nil {
		return d.units
	}
	return d.Store.Units()
}

func (d racingDirectory) Payments() repository.PaymentRepository {
	if d.payments != nil {
		return d.payments
	}
	return d.Store.Payments()
}

func (d racingDirectory) Tickets() repository.TicketRepository {
	if d.tickets != nil {
		return d.tickets
	}
	return d.Store.Tickets()
}

func noCompetitor(context.Context) {}

func TestApproveAndAssign_LostUnitWriteReportsNotVacant(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := NewEstateService(fx.store).RegisterAccount(ctx, "t2", domain.RoleTenant, "Rival", "t2@example.com")
	require.NoError(t, err)

	takeUnit := func(ctx context.Context) {
		u, err := fx.store.Units().GetByID(ctx, fx.unit.ID)
		require.NoError(t, err)
		u.Occupy("t2")
		require.NoError(t, fx.store.Units().UpdateIfVersion(ctx, u, u.RowVersion))
	}
	dir := racingDirectory{Store: fx.store, units: racingUnits{fx.store.Units(), takeUnit}}

	err = dir.RunInTx(ctx, func(ctx context.Context) error {
		_, _, err := NewOccupancyService(dir).ApproveAndAssign(ctx, fx.estate.ID, "t1", fx.unit.ID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrUnitNotVacant)

	tenant, err := fx.store.Persons().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, tenant.VerificationStatus)
	assert.Nil(t, tenant.AssignedUnitID)
}

func TestApproveAndAssign_LostUnitWriteOnVacantUnitIsConflict(t *testing.T) {
	fx := newFixture(t)
	dir := racingDirectory{Store: fx.store, units: racingUnits{fx.store.Units(), noCompetitor}}

	_, _, err := NewOccupancyService(dir).ApproveAndAssign(context.Background(), fx.estate.ID, "t1", fx.unit.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.Retryable(err))
}

func TestDecidePayment_LostDecisionReportsAlreadyDecided(t *testing.T) {
	fx := assigned(t)
	ctx := context.Background()
	p, err := newLedger(fx.store, nil).SubmitPayment(ctx, "t1", 1000, "/artifacts/payments/a.png")
	require.NoError(t, err)

	rejectFirst := func(ctx context.Context) {
		current, err := fx.store.Payments().GetByID(ctx, p.ID)
		require.NoError(t, err)
		decidedAt := fixedNow().Add(-time.Minute)
		current.Status = domain.PaymentStatusRejected
		current.DecidedAt = &decidedAt
		require.NoError(t, fx.store.Payments().UpdateIfVersion(ctx, current, current.RowVersion))
	}
	dir := racingDirectory{Store: fx.store, payments: racingPayments{fx.store.Payments(), rejectFirst}}
	ledger := &paymentLedger{dir: dir, now: fixedNow}

	_, err = ledger.DecidePayment(ctx, fx.estate.ID, "m1", p.ID, domain.PaymentDecisionApprove)
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)

	stored, err := fx.store.Payments().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRejected, stored.Status)

	// Nothing was settled against the tenant's invoices.
	balance, err := newLedger(fx.store, nil).OutstandingBalance(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestDecidePayment_LostWriteOnPendingPaymentIsConflict(t *testing.T) {
	fx := assigned(t)
	ctx := context.Background()
	p, err := newLedger(fx.store, nil).SubmitPayment(ctx, "t1", 1000, "/artifacts/payments/a.png")
	require.NoError(t, err)

	dir := racingDirectory{Store: fx.store, payments: racingPayments{fx.store.Payments(), noCompetitor}}
	_, err = (&paymentLedger{dir: dir, now: fixedNow}).DecidePayment(ctx, fx.estate.ID, "m1", p.ID, domain.PaymentDecisionReject)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAdvanceStatus_LostMoveAfterResolutionIsInvalidTransition(t *testing.T) {
	fx := assigned(t)
	ctx := context.Background()
	tracker := &maintenanceTracker{dir: fx.store, now: fixedNow}
	ticket, err := tracker.FileTicket(ctx, "t1", TicketInput{Category: "plumbing", Description: "tap leaks"}, nil)
	require.NoError(t, err)

	resolveFirst := func(ctx context.Context) {
		current, err := fx.store.Tickets().GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		resolvedAt := fixedNow()
		current.Status = domain.TicketStatusResolved
		current.ResolvedAt = &resolvedAt
		require.NoError(t, fx.store.Tickets().UpdateIfVersion(ctx, current, current.RowVersion))
	}
	dir := racingDirectory{Store: fx.store, tickets: racingTickets{fx.store.Tickets(), resolveFirst}}

	_, _, err = (&maintenanceTracker{dir: dir, now: fixedNow}).AdvanceStatus(ctx, fx.estate.ID, ticket.ID, domain.TicketStatusInProgress)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := fx.store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, stored.Status)
}

func TestAdvanceStatus_LostMoveStillLegalIsConflict(t *testing.T) {
	fx := assigned(t)
	ctx := context.Background()
	ticket, err := (&maintenanceTracker{dir: fx.store, now: fixedNow}).
		FileTicket(ctx, "t1", TicketInput{Category: "plumbing", Description: "tap leaks"}, nil)
	require.NoError(t, err)

	dir := racingDirectory{Store: fx.store, tickets: racingTickets{fx.store.Tickets(), noCompetitor}}
	_, _, err = (&maintenanceTracker{dir: dir, now: fixedNow}).AdvanceStatus(ctx, fx.estate.ID, ticket.ID, domain.TicketStatusResolved)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
