package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, PaymentTransitions.Allowed(PaymentStatusPending, PaymentStatusApproved))
	assert.True(t, PaymentTransitions.Allowed(PaymentStatusPending, PaymentStatusRejected))
	assert.False(t, PaymentTransitions.Allowed(PaymentStatusApproved, PaymentStatusRejected))
	assert.False(t, PaymentTransitions.Allowed(PaymentStatusRejected, PaymentStatusPending))

	assert.False(t, PaymentTransitions.Terminal(PaymentStatusPending))
	assert.True(t, PaymentTransitions.Terminal(PaymentStatusApproved))
	assert.True(t, PaymentTransitions.Terminal(PaymentStatusRejected))
	assert.ElementsMatch(t, []PaymentStatus{PaymentStatusApproved, PaymentStatusRejected}, PaymentTransitions.Next(PaymentStatusPending))
}

func TestTicketTransitions(t *testing.T) {
	t.Run("Forward", func(t *testing.T) {
		assert.True(t, TicketTransitions.Allowed(TicketStatusPending, TicketStatusInProgress))
		assert.True(t, TicketTransitions.Allowed(TicketStatusPending, TicketStatusResolved))
		assert.True(t, TicketTransitions.Allowed(TicketStatusInProgress, TicketStatusResolved))
	})

	t.Run("NoBackwardOrSelf", func(t *testing.T) {
		assert.False(t, TicketTransitions.Allowed(TicketStatusInProgress, TicketStatusPending))
		assert.False(t, TicketTransitions.Allowed(TicketStatusResolved, TicketStatusInProgress))
		assert.False(t, TicketTransitions.Allowed(TicketStatusPending, TicketStatusPending))
		assert.True(t, TicketTransitions.Terminal(TicketStatusResolved))
	})

	t.Run("RankMatchesGraph", func(t *testing.T) {
		for _, from := range []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusResolved} {
			for _, to := range TicketTransitions.Next(from) {
				assert.Greater(t, to.Rank(), from.Rank())
			}
		}
		assert.False(t, TicketStatus("CLOSED").Valid())
	})
}

func TestPaymentDecisionStatus(t *testing.T) {
	s, ok := PaymentDecisionApprove.Status()
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusApproved, s)

	s, ok = PaymentDecisionReject.Status()
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusRejected, s)

	_, ok = PaymentDecision("MAYBE").Status()
	assert.False(t, ok)
}

func TestUnitOccupyRelease(t *testing.T) {
	u := &Unit{ID: "u1", EstateID: "e1", Status: UnitStatusVacant}
	assert.True(t, u.Consistent())

	u.Occupy("t1")
	assert.Equal(t, UnitStatusOccupied, u.Status)
	assert.Equal(t, "t1", *u.OccupantID)
	assert.True(t, u.Consistent())

	u.Release()
	assert.Equal(t, UnitStatusVacant, u.Status)
	assert.Nil(t, u.OccupantID)
	assert.True(t, u.Consistent())

	u.Status = UnitStatusUnderMaintenance
	occupant := "t2"
	u.OccupantID = &occupant
	assert.False(t, u.Consistent())
}

func TestPersonLifecycle(t *testing.T) {
	now := time.Now()
	estateID := "e1"
	p := &Person{ID: "t1", Role: RoleTenant, VerificationStatus: VerificationPending, EstateID: &estateID, RequestedAt: &now}

	assert.True(t, p.HasPendingRequest())
	assert.True(t, p.PendingFor("e1"))
	assert.False(t, p.PendingFor("e2"))
	assert.True(t, p.BelongsTo("e1"))
	assert.True(t, p.Consistent())

	req, ok := AccessRequestOf(p)
	assert.True(t, ok)
	assert.Equal(t, "e1", req.EstateID)
	assert.Equal(t, now, req.RequestedAt)

	p.Assign(&Unit{ID: "u1", EstateID: "e1"}, now)
	assert.Equal(t, VerificationVerified, p.VerificationStatus)
	assert.Equal(t, "u1", *p.AssignedUnitID)
	assert.False(t, p.HasPendingRequest())
	assert.True(t, p.Consistent())
	_, ok = AccessRequestOf(p)
	assert.False(t, ok)

	p.Detach(now)
	assert.Nil(t, p.EstateID)
	assert.Nil(t, p.AssignedUnitID)
	assert.Nil(t, p.RequestedAt)
	assert.Equal(t, VerificationUnset, p.VerificationStatus)
	assert.True(t, p.Consistent())

	p.VerificationStatus = VerificationVerified
	assert.False(t, p.Consistent())

	manager := &Person{ID: "m1", Role: RoleManager}
	assert.True(t, manager.Consistent())
	assert.True(t, manager.IsManager())
	assert.False(t, manager.IsTenant())
}

func TestInvoiceApply(t *testing.T) {
	inv := &Invoice{AmountCents: 10000, PaidCents: 2500}
	assert.Equal(t, int64(7500), inv.OutstandingCents())

	used := inv.Apply(5000)
	assert.Equal(t, int64(5000), used)
	assert.Equal(t, int64(2500), inv.OutstandingCents())

	used = inv.Apply(9000)
	assert.Equal(t, int64(2500), used)
	assert.Equal(t, int64(0), inv.OutstandingCents())
	assert.Equal(t, int64(10000), inv.PaidCents)

	assert.Equal(t, int64(0), inv.Apply(100))
}

func TestEstateIsManagedBy(t *testing.T) {
	e := &Estate{ID: "e1", ManagerID: "m1"}
	assert.True(t, e.IsManagedBy("m1"))
	assert.False(t, e.IsManagedBy("m2"))
	assert.False(t, e.IsManagedBy(""))

	var missing *Estate
	assert.False(t, missing.IsManagedBy("m1"))
}

func TestWorkflowErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: unit u1", ErrUnitNotVacant)
	assert.True(t, errors.Is(wrapped, ErrUnitNotVacant))
	assert.Equal(t, KindPrecondition, KindOf(wrapped))
	assert.Equal(t, "UNIT_NOT_VACANT", CodeOf(wrapped))
	assert.False(t, Retryable(wrapped))

	assert.True(t, Retryable(ErrConflict))
	assert.True(t, Retryable(fmt.Errorf("%w: timeout", ErrStoreUnavailable)))

	plain := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(plain))
	assert.Equal(t, "INTERNAL", CodeOf(plain))
	assert.False(t, Retryable(plain))
}
