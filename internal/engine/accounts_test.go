package engine

import (
	"context"
	"testing"

	"estatehub-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAccount(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.RegisterAccount(context.Background(), domain.RoleTenant, "Ada", "ada@example.com")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = h.engine.RegisterAccount(as("t1"), "LANDLORD", "Ada", "ada@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	person, err := h.engine.RegisterAccount(as("t1"), domain.RoleTenant, "  Ada ", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "t1", person.ID)
	assert.Equal(t, "Ada", person.Name)
	assert.Equal(t, domain.VerificationUnset, person.VerificationStatus)

	_, err = h.engine.RegisterAccount(as("t1"), domain.RoleManager, "Ada", "ada@example.com")
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestUnregisteredActorIsForbidden(t *testing.T) {
	h := newHarness(t)
	fx := h.newEstate(t, "m1", "U101")

	_, err := h.engine.RequestAccess(as("ghost"), fx.estate.JoinCode)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = h.engine.Me(as("ghost"))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.engine.ListVacantUnits(context.Background(), fx.estate.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCreateEstate(t *testing.T) {
	h := newHarness(t)
	fx := h.newEstate(t, "m1")
	assert.Equal(t, "m1", fx.estate.ManagerID)
	assert.NotEmpty(t, fx.estate.JoinCode)

	_, err := h.engine.CreateEstate(as("m1"), "Second", "2 Palm Rd")
	assert.ErrorIs(t, err, domain.ErrEstateAlreadyOwned)

	h.newTenant(t, "t1")
	_, err = h.engine.CreateEstate(as("t1"), "Mine", "3 Palm Rd")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.engine.CreateUnit(as("t1"), fx.estate.ID, "U1", 1, "flat")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.engine.CreateUnit(as("m1"), fx.estate.ID, "", 1, "flat")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	fx := h.newEstate(t, "m1", "U101")
	h.newTenant(t, "t1")

	person, estate, err := h.engine.Me(as("m1"))
	require.NoError(t, err)
	assert.Equal(t, "m1", person.ID)
	require.NotNil(t, estate)
	assert.Equal(t, fx.estate.ID, estate.ID)

	person, estate, err = h.engine.Me(as("t1"))
	require.NoError(t, err)
	assert.Equal(t, "t1", person.ID)
	assert.Nil(t, estate)

	_, err = h.engine.RequestAccess(as("t1"), fx.estate.JoinCode)
	require.NoError(t, err)
	_, estate, err = h.engine.Me(as("t1"))
	require.NoError(t, err)
	require.NotNil(t, estate)
	assert.Equal(t, fx.estate.ID, estate.ID)
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(domain.ErrUnitNotVacant), domain.ErrUnitNotVacant)
	assert.ErrorIs(t, translate(context.Canceled), context.Canceled)
	assert.ErrorIs(t, translate(assert.AnError), domain.ErrStoreUnavailable)
}
