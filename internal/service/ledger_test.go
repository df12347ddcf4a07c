package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository/memory"
	"estatehub-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

// MockArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Store(ctx context.Context, data []byte, folderHint, contentType string) (string, error) {
	args := m.Called(ctx, data, folderHint, contentType)
	return args.String(0), args.Error(1)
}

// assigned approves the fixture tenant into the fixture unit.
func assigned(t *testing.T) *fixture {
	t.Helper()
	fx := newFixture(t)
	_, _, err := NewOccupancyService(fx.store).ApproveAndAssign(context.Background(), fx.estate.ID, "t1", fx.unit.ID)
	require.NoError(t, err)
	return fx
}

func newLedger(store *memory.Store, artifacts storage.ArtifactStore) *paymentLedger {
	return &paymentLedger{dir: store, artifacts: artifacts, now: fixedNow}
}

func TestUploadError(t *testing.T) {
	assert.ErrorIs(t, uploadError(storage.ErrTooLarge), domain.ErrInvalidInput)
	assert.ErrorIs(t, uploadError(storage.ErrUnsupportedType), domain.ErrInvalidInput)
	assert.ErrorIs(t, uploadError(errors.New("503 from bucket")), domain.ErrUploadFailed)
}

func TestSubmitPayment_RejectedContentType(t *testing.T) {
	fx := assigned(t)
	artifacts := new(MockArtifactStore)
	artifacts.On("Store", mock.Anything, mock.Anything, proofFolder, "text/html").
		Return("", storage.ErrUnsupportedType).Once()

	_, err := newLedger(fx.store, artifacts).StoreProof(context.Background(), "t1",
		Artifact{Filename: "x.html", ContentType: "text/html", Data: []byte("<html>")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	artifacts.AssertExpectations(t)
}

func TestStoreProof_RequiresAssignedTenant(t *testing.T) {
	fx := newFixture(t)
	artifacts := new(MockArtifactStore)
	ledger := newLedger(fx.store, artifacts)

	_, err := ledger.StoreProof(context.Background(), "t1", Artifact{ContentType: "image/png", Data: []byte{1}})
	assert.ErrorIs(t, err, domain.ErrNoAssignedUnit)
	_, err = ledger.StoreProof(context.Background(), "t1", Artifact{})
	assert.ErrorIs(t, err, domain.ErrMissingProof)
	artifacts.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitPayment_RechecksAssignment(t *testing.T) {
	fx := assigned(t)
	ledger := newLedger(fx.store, nil)
	ctx := context.Background()

	_, err := ledger.SubmitPayment(ctx, "t1", 1000, "")
	assert.ErrorIs(t, err, domain.ErrMissingProof)

	_, _, err = NewOccupancyService(fx.store).VacateUnit(ctx, fx.estate.ID, fx.unit.ID)
	require.NoError(t, err)
	_, err = ledger.SubmitPayment(ctx, "t1", 1000, "/artifacts/payments/a.png")
	assert.ErrorIs(t, err, domain.ErrNoAssignedUnit)
}

func TestSettle_AppliesOldestDueFirst(t *testing.T) {
	fx := assigned(t)
	ledger := newLedger(fx.store, nil)
	ctx := context.Background()

	due := fixedNow()
	march, err := ledger.IssueInvoice(ctx, fx.estate.ID, "t1", 30000, "March", due.AddDate(0, 1, 0))
	require.NoError(t, err)
	feb, err := ledger.IssueInvoice(ctx, fx.estate.ID, "t1", 20000, "February", due)
	require.NoError(t, err)

	require.NoError(t, ledger.settle(ctx, "t1", 25000))

	open, err := fx.store.Invoices().ListOpenByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, march.ID, open[0].ID)
	assert.Equal(t, int64(5000), open[0].PaidCents)
	assert.NotEqual(t, feb.ID, open[0].ID)

	balance, err := ledger.OutstandingBalance(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(25000), balance)
}

func TestIssueInvoice_RequiresDueDate(t *testing.T) {
	fx := assigned(t)
	_, err := newLedger(fx.store, nil).IssueInvoice(context.Background(), fx.estate.ID, "t1", 100, "rent", time.Time{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = newLedger(fx.store, nil).IssueInvoice(context.Background(), "other-estate", "t1", 100, "rent", fixedNow())
	assert.ErrorIs(t, err, domain.ErrNoAssignedUnit)
}

func TestDecidePayment_StampsDecision(t *testing.T) {
	fx := assigned(t)
	artifacts := new(MockArtifactStore)
	artifacts.On("Store", mock.Anything, mock.Anything, proofFolder, "image/png").
		Return("/artifacts/payments/a.png", nil).Once()
	ledger := newLedger(fx.store, artifacts)
	ctx := context.Background()

	ref, err := ledger.StoreProof(ctx, "t1", Artifact{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)
	p, err := ledger.SubmitPayment(ctx, "t1", 1000, ref)
	require.NoError(t, err)
	assert.Equal(t, "/artifacts/payments/a.png", p.ProofRef)
	assert.Equal(t, fixedNow(), p.CreatedAt)

	decided, err := ledger.DecidePayment(ctx, fx.estate.ID, "m1", p.ID, domain.PaymentDecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedAt)
	assert.Equal(t, fixedNow(), *decided.DecidedAt)
	assert.Equal(t, int64(1000), decided.AmountCents)

	_, err = ledger.DecidePayment(ctx, fx.estate.ID, "m1", p.ID, domain.PaymentDecisionReject)
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
}
