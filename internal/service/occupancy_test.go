package service

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/repository"
	"estatehub-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitializeWithWriter("error", "text", io.Discard)
	os.Exit(m.Run())
}

// failingPersons rejects every conditional person write.
type failingPersons struct {
	repository.PersonRepository
	err error
}

func (f failingPersons) UpdateIfVersion(ctx context.Context, p *domain.Person, expected int64) error {
	return f.err
}

type failingDirectory struct {
	*memory.Store
	persons repository.PersonRepository
}

func (d failingDirectory) Persons() repository.PersonRepository { return d.persons }

type fixture struct {
	store  *memory.Store
	estate *domain.Estate
	unit   *domain.Unit
}

// newFixture seeds a manager with one estate and unit, and a tenant with a
// pending request for that estate.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	estates := NewEstateService(store)

	_, err := estates.RegisterAccount(ctx, "m1", domain.RoleManager, "Manager", "m1@example.com")
	require.NoError(t, err)
	estate, err := estates.CreateEstate(ctx, "m1", "Palm Court", "1 Palm Rd")
	require.NoError(t, err)
	unit, err := estates.CreateUnit(ctx, estate.ID, "U101", 2, "flat")
	require.NoError(t, err)
	_, err = estates.RegisterAccount(ctx, "t1", domain.RoleTenant, "Tenant", "t1@example.com")
	require.NoError(t, err)
	_, err = NewOccupancyService(store).RequestAccess(ctx, "t1", estate.JoinCode)
	require.NoError(t, err)

	return &fixture{store: store, estate: estate, unit: unit}
}

func TestApproveAndAssign_SecondWriteFailureRollsBackUnit(t *testing.T) {
	fx := newFixture(t)
	dir := failingDirectory{Store: fx.store, persons: failingPersons{fx.store.Persons(), errors.New("connection reset")}}
	svc := NewOccupancyService(dir)

	err := dir.RunInTx(context.Background(), func(ctx context.Context) error {
		_, _, err := svc.ApproveAndAssign(ctx, fx.estate.ID, "t1", fx.unit.ID)
		return err
	})
	require.Error(t, err)

	unit, err := fx.store.Units().GetByID(context.Background(), fx.unit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UnitStatusVacant, unit.Status)
	assert.Nil(t, unit.OccupantID)

	tenant, err := fx.store.Persons().GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, tenant.VerificationStatus)
}

func TestApproveAndAssign_LostTenantRaceIsClassified(t *testing.T) {
	fx := newFixture(t)
	dir := failingDirectory{Store: fx.store, persons: failingPersons{fx.store.Persons(), repository.ErrVersionConflict}}
	svc := NewOccupancyService(dir)

	err := dir.RunInTx(context.Background(), func(ctx context.Context) error {
		_, _, err := svc.ApproveAndAssign(ctx, fx.estate.ID, "t1", fx.unit.ID)
		return err
	})
	// The stored tenant is still pending, so the loss is a plain conflict.
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRequestAccess_NormalizesJoinCode(t *testing.T) {
	fx := newFixture(t)
	estates := NewEstateService(fx.store)
	_, err := estates.RegisterAccount(context.Background(), "t2", domain.RoleTenant, "Second", "t2@example.com")
	require.NoError(t, err)

	svc := NewOccupancyService(fx.store)
	code := " " + fx.estate.JoinCode + " "
	tenant, err := svc.RequestAccess(context.Background(), "t2", code)
	require.NoError(t, err)
	require.NotNil(t, tenant.EstateID)
	assert.Equal(t, fx.estate.ID, *tenant.EstateID)

	_, err = svc.RequestAccess(context.Background(), "t2", "")
	assert.ErrorIs(t, err, domain.ErrAlreadyPending)

	_, err = svc.RequestAccess(context.Background(), "missing", fx.estate.JoinCode)
	assert.ErrorIs(t, err, domain.ErrPersonNotFound)
}

func TestListPendingRequests_OldestFirst(t *testing.T) {
	fx := newFixture(t)
	estates := NewEstateService(fx.store)
	svc := NewOccupancyService(fx.store)
	_, err := estates.RegisterAccount(context.Background(), "t2", domain.RoleTenant, "Second", "t2@example.com")
	require.NoError(t, err)
	_, err = svc.RequestAccess(context.Background(), "t2", fx.estate.ID)
	require.NoError(t, err)

	requests, err := svc.ListPendingRequests(context.Background(), fx.estate.ID)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "t1", requests[0].TenantID)
	assert.Equal(t, "t2", requests[1].TenantID)
	assert.Equal(t, "t1@example.com", requests[0].Email)
}
