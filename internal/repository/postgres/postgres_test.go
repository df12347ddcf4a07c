package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var unitColumns = []string{"id", "estate_id", "label", "bedroom_count", "kind", "status", "occupant_id", "created_at", "updated_at", "row_version"}

func TestStore_RunInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE units").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE persons").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.RunInTx(ctx, func(ctx context.Context) error {
			if err := store.Units().UpdateIfVersion(ctx, &domain.Unit{ID: "u1", Status: domain.UnitStatusVacant}, 3); err != nil {
				return err
			}
			return store.Persons().UpdateIfVersion(ctx, &domain.Person{ID: "t1"}, 2)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackOnConflict", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE units").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE persons").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.RunInTx(ctx, func(ctx context.Context) error {
			if err := store.Units().UpdateIfVersion(ctx, &domain.Unit{ID: "u1"}, 3); err != nil {
				return err
			}
			return store.Persons().UpdateIfVersion(ctx, &domain.Person{ID: "t1"}, 2)
		})
		assert.ErrorIs(t, err, repository.ErrVersionConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFails", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		called := false
		err := store.RunInTx(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})
}

func TestUnitRepository_UpdateIfVersion(t *testing.T) {
	ctx := context.Background()
	occupant := "t1"
	unit := func() *domain.Unit {
		return &domain.Unit{ID: "u1", EstateID: "e1", Label: "A1", BedroomCount: 2, Kind: "flat", Status: domain.UnitStatusOccupied, OccupantID: &occupant}
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUnitRepository(db)
		u := unit()

		mock.ExpectExec("UPDATE units").
			WithArgs("A1", int32(2), "flat", domain.UnitStatusOccupied, "t1", sqlmock.AnyArg(), "u1", int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateIfVersion(ctx, u, 4))
		assert.Equal(t, int64(5), u.RowVersion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StaleVersion", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUnitRepository(db)
		u := unit()

		mock.ExpectExec("UPDATE units").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateIfVersion(ctx, u, 4)
		assert.ErrorIs(t, err, repository.ErrVersionConflict)
		assert.Equal(t, int64(0), u.RowVersion)
	})

	t.Run("OccupantAlreadyHoldsUnit", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUnitRepository(db)

		mock.ExpectExec("UPDATE units").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "units_occupant_id_key"})

		err := repo.UpdateIfVersion(ctx, unit(), 4)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Contains(t, err.Error(), "units_occupant_id_key")
	})
}

func TestUnitRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUnitRepository(db)
		mock.ExpectQuery("SELECT (.+) FROM units WHERE id = \\$1").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(unitColumns).AddRow("u1", "e1", "A1", 2, "flat", "VACANT", nil, now, now, 3))

		u, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.UnitStatusVacant, u.Status)
		assert.Nil(t, u.OccupantID)
		assert.Equal(t, int64(3), u.RowVersion)
	})

	t.Run("Missing", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUnitRepository(db)
		mock.ExpectQuery("SELECT (.+) FROM units").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "u9")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUnitRepository_ListByEstate(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewUnitRepository(db)
	now := time.Now()
	vacant := domain.UnitStatusVacant

	mock.ExpectQuery("SELECT (.+) FROM units WHERE estate_id = \\$1 AND status = \\$2 ORDER BY label").
		WithArgs("e1", vacant).
		WillReturnRows(sqlmock.NewRows(unitColumns).
			AddRow("u1", "e1", "A1", 1, "studio", "VACANT", nil, now, now, 1).
			AddRow("u2", "e1", "A2", 3, "house", "VACANT", nil, now, now, 2))

	units, err := repo.ListByEstate(ctx, "e1", &vacant)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "A2", units[1].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository(t *testing.T) {
	ctx := context.Background()
	personColumns := []string{"id", "role", "name", "email", "estate_id", "verification_status", "assigned_unit_id",
		"requested_at", "created_at", "updated_at", "row_version"}

	t.Run("ListPendingByEstate", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPersonRepository(db)
		now := time.Now()

		mock.ExpectQuery("FROM persons WHERE estate_id = \\$1 AND verification_status = 'PENDING'").
			WithArgs("e1").
			WillReturnRows(sqlmock.NewRows(personColumns).
				AddRow("t1", "TENANT", "Ada", "ada@example.com", "e1", "PENDING", nil, now, now, now, 2))

		persons, err := repo.ListPendingByEstate(ctx, "e1")
		require.NoError(t, err)
		require.Len(t, persons, 1)
		assert.True(t, persons[0].PendingFor("e1"))
		require.NotNil(t, persons[0].RequestedAt)
		assert.Nil(t, persons[0].AssignedUnitID)
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPersonRepository(db)
		mock.ExpectExec("INSERT INTO persons").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "persons_pkey"})

		err := repo.Create(ctx, &domain.Person{ID: "t1", Role: domain.RoleTenant})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPersonRepository(db)
		boom := errors.New("connection reset")
		mock.ExpectExec("INSERT INTO persons").WillReturnError(boom)

		err := repo.Create(ctx, &domain.Person{ID: "t1"})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestPaymentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPaymentRepository(db)
		p := &domain.Payment{ID: "p1", EstateID: "e1", TenantID: "t1", AmountCents: 1500, ProofRef: "http://x/files/p.pdf", Status: domain.PaymentStatusPending}

		mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, p))
		assert.Equal(t, int64(1), p.RowVersion)
	})

	t.Run("DecideLosesRace", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPaymentRepository(db)
		now := time.Now()
		manager := "m1"
		p := &domain.Payment{ID: "p1", Status: domain.PaymentStatusApproved, DecidedAt: &now, DecidedBy: &manager}

		mock.ExpectExec("UPDATE payments").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateIfVersion(ctx, p, 1), repository.ErrVersionConflict)
	})
}

func TestTicketRepository(t *testing.T) {
	ctx := context.Background()
	ticketColumns := []string{"id", "estate_id", "tenant_id", "unit_id", "category", "priority", "status", "description",
		"attachment_refs", "created_at", "updated_at", "resolved_at", "row_version"}

	t.Run("CreateWithoutAttachments", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewTicketRepository(db)
		tk := &domain.Ticket{ID: "k1", EstateID: "e1", TenantID: "t1", UnitID: "u1", Category: "plumbing",
			Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusPending, Description: "leak"}

		mock.ExpectExec("INSERT INTO tickets").
			WithArgs("k1", "e1", "t1", "u1", "plumbing", domain.TicketPriorityHigh, domain.TicketStatusPending, "leak",
				"{}", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, tk))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByID", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewTicketRepository(db)
		now := time.Now()

		mock.ExpectQuery("FROM tickets WHERE id = \\$1").
			WithArgs("k1").
			WillReturnRows(sqlmock.NewRows(ticketColumns).
				AddRow("k1", "e1", "t1", "u1", "plumbing", "HIGH", "RESOLVED", "leak", "{a.jpg,b.jpg}", now, now, now, 3))

		tk, err := repo.GetByID(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, tk.AttachmentRefs)
		assert.Equal(t, domain.TicketStatusResolved, tk.Status)
		assert.NotNil(t, tk.ResolvedAt)
	})
}

func TestInvoiceRepository(t *testing.T) {
	ctx := context.Background()
	invoiceColumns := []string{"id", "estate_id", "tenant_id", "amount_cents", "paid_cents", "description", "due_date", "created_at", "row_version"}
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("ListOpenByTenant", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewInvoiceRepository(db)

		mock.ExpectQuery("FROM invoices WHERE tenant_id = \\$1 AND paid_cents < amount_cents ORDER BY due_date, created_at").
			WithArgs("t1").
			WillReturnRows(sqlmock.NewRows(invoiceColumns).
				AddRow("i1", "e1", "t1", 10000, 2500, "March rent", due, due, 2))

		invoices, err := repo.ListOpenByTenant(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, int64(7500), invoices[0].OutstandingCents())
	})

	t.Run("UpdateIfVersion", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewInvoiceRepository(db)
		inv := &domain.Invoice{ID: "i1", PaidCents: 10000}

		mock.ExpectExec("UPDATE invoices SET paid_cents = \\$1").
			WithArgs(int64(10000), "i1", int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateIfVersion(ctx, inv, 2))
		assert.Equal(t, int64(3), inv.RowVersion)
	})
}

func TestEstateRepository_GetByJoinCode(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewEstateRepository(db)
	now := time.Now()

	mock.ExpectQuery("FROM estates WHERE join_code = \\$1").
		WithArgs("EST-0042").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "manager_id", "join_code", "created_at"}).
			AddRow("e1", "Palm Court", "1 Palm Rd", "m1", "EST-0042", now))

	e, err := repo.GetByJoinCode(ctx, "EST-0042")
	require.NoError(t, err)
	assert.True(t, e.IsManagedBy("m1"))
}
