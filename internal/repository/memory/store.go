// Package memory is an in-process Directory Store used by tests and by the
// server when database.driver is "memory".
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
)

var _ repository.Directory = (*Store)(nil)

type state struct {
	estates  map[string]domain.Estate
	units    map[string]domain.Unit
	persons  map[string]domain.Person
	payments map[string]domain.Payment
	tickets  map[string]domain.Ticket
	invoices map[string]domain.Invoice
}

func newState() state {
	return state{
		estates:  make(map[string]domain.Estate),
		units:    make(map[string]domain.Unit),
		persons:  make(map[string]domain.Person),
		payments: make(map[string]domain.Payment),
		tickets:  make(map[string]domain.Ticket),
		invoices: make(map[string]domain.Invoice),
	}
}

func (s state) clone() state {
	return state{
		estates:  maps.Clone(s.estates),
		units:    maps.Clone(s.units),
		persons:  maps.Clone(s.persons),
		payments: maps.Clone(s.payments),
		tickets:  maps.Clone(s.tickets),
		invoices: maps.Clone(s.invoices),
	}
}

type txKey struct{}

// Store keeps every collection in an immutable snapshot. Writers take mu,
// work on a clone and publish it on success, so write groups are serialized
// and a failed one leaves no trace. Readers load the latest snapshot and never
// wait for a writer.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[state]

	estates  *estateRepository
	units    *unitRepository
	persons  *personRepository
	payments *paymentRepository
	tickets  *ticketRepository
	invoices *invoiceRepository
}

func NewStore() *Store {
	s := &Store{}
	initial := newState()
	s.current.Store(&initial)
	s.estates = &estateRepository{s}
	s.units = &unitRepository{s}
	s.persons = &personRepository{s}
	s.payments = &paymentRepository{s}
	s.tickets = &ticketRepository{s}
	s.invoices = &invoiceRepository{s}
	return s
}

func (s *Store) Estates() repository.EstateRepository   { return s.estates }
func (s *Store) Units() repository.UnitRepository       { return s.units }
func (s *Store) Persons() repository.PersonRepository   { return s.persons }
func (s *Store) Payments() repository.PaymentRepository { return s.payments }
func (s *Store) Tickets() repository.TicketRepository   { return s.tickets }
func (s *Store) Invoices() repository.InvoiceRepository { return s.invoices }

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}
	return s.commit(func(work *state) error {
		return fn(context.WithValue(ctx, txKey{}, work))
	})
}

// commit applies fn to a clone of the latest snapshot and publishes the clone
// if fn succeeds.
func (s *Store) commit(fn func(work *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.current.Load().clone()
	if err := fn(&work); err != nil {
		return err
	}
	s.current.Store(&work)
	return nil
}

// read callbacks must not mutate st: outside a transaction it is the
// published snapshot.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	return fn(s.current.Load())
}

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	return s.commit(fn)
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, what)
}

type estateRepository struct{ s *Store }

func (r *estateRepository) Create(ctx context.Context, e *domain.Estate) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.estates[e.ID]; ok {
			return duplicate("estates_pkey")
		}
		for _, existing := range st.estates {
			if existing.JoinCode == e.JoinCode {
				return duplicate("estates_join_code_key")
			}
			if existing.ManagerID == e.ManagerID {
				return duplicate("estates_manager_id_key")
			}
		}
		st.estates[e.ID] = *e
		return nil
	})
}

func (r *estateRepository) GetByID(ctx context.Context, id string) (*domain.Estate, error) {
	return r.find(ctx, func(e domain.Estate) bool { return e.ID == id })
}

func (r *estateRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Estate, error) {
	return r.find(ctx, func(e domain.Estate) bool { return e.JoinCode == code })
}

func (r *estateRepository) GetByManager(ctx context.Context, managerID string) (*domain.Estate, error) {
	return r.find(ctx, func(e domain.Estate) bool { return e.ManagerID == managerID })
}

func (r *estateRepository) find(ctx context.Context, match func(domain.Estate) bool) (*domain.Estate, error) {
	var found *domain.Estate
	err := r.s.read(ctx, func(st *state) error {
		for _, e := range st.estates {
			if match(e) {
				found = &e
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

type unitRepository struct{ s *Store }

func (r *unitRepository) Create(ctx context.Context, u *domain.Unit) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.units[u.ID]; ok {
			return duplicate("units_pkey")
		}
		u.RowVersion = 1
		st.units[u.ID] = *u
		return nil
	})
}

func (r *unitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	var u domain.Unit
	err := r.s.read(ctx, func(st *state) error {
		var ok bool
		if u, ok = st.units[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *unitRepository) ListByEstate(ctx context.Context, estateID string, status *domain.UnitStatus) ([]domain.Unit, error) {
	var units []domain.Unit
	err := r.s.read(ctx, func(st *state) error {
		for _, u := range st.units {
			if u.EstateID == estateID && (status == nil || u.Status == *status) {
				units = append(units, u)
			}
		}
		return nil
	})
	slices.SortFunc(units, func(a, b domain.Unit) int { return cmp.Compare(a.Label, b.Label) })
	return units, err
}

func (r *unitRepository) UpdateIfVersion(ctx context.Context, u *domain.Unit, expected int64) error {
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.units[u.ID]
		if !ok || current.RowVersion != expected {
			return repository.ErrVersionConflict
		}
		if u.OccupantID != nil {
			for id, other := range st.units {
				if id != u.ID && other.OccupantID != nil && *other.OccupantID == *u.OccupantID {
					return duplicate("units_occupant_id_key")
				}
			}
		}
		u.RowVersion = expected + 1
		st.units[u.ID] = *u
		return nil
	})
}

type personRepository struct{ s *Store }

func (r *personRepository) Create(ctx context.Context, p *domain.Person) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.persons[p.ID]; ok {
			return duplicate("persons_pkey")
		}
		p.RowVersion = 1
		st.persons[p.ID] = *p
		return nil
	})
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	var p domain.Person
	err := r.s.read(ctx, func(st *state) error {
		var ok bool
		if p, ok = st.persons[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *personRepository) ListPendingByEstate(ctx context.Context, estateID string) ([]domain.Person, error) {
	var persons []domain.Person
	err := r.s.read(ctx, func(st *state) error {
		for _, p := range st.persons {
			if p.PendingFor(estateID) {
				persons = append(persons, p)
			}
		}
		return nil
	})
	slices.SortFunc(persons, func(a, b domain.Person) int {
		return compareTimes(a.RequestedAt, b.RequestedAt)
	})
	return persons, err
}

func (r *personRepository) UpdateIfVersion(ctx context.Context, p *domain.Person, expected int64) error {
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.persons[p.ID]
		if !ok || current.RowVersion != expected {
			return repository.ErrVersionConflict
		}
		if p.AssignedUnitID != nil {
			for id, other := range st.persons {
				if id != p.ID && other.AssignedUnitID != nil && *other.AssignedUnitID == *p.AssignedUnitID {
					return duplicate("persons_assigned_unit_id_key")
				}
			}
		}
		p.RowVersion = expected + 1
		st.persons[p.ID] = *p
		return nil
	})
}

type paymentRepository struct{ s *Store }

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.payments[p.ID]; ok {
			return duplicate("payments_pkey")
		}
		p.RowVersion = 1
		st.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.s.read(ctx, func(st *state) error {
		var ok bool
		if p, ok = st.payments[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) ListByEstate(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.s.read(ctx, func(st *state) error {
		for _, p := range st.payments {
			if p.EstateID == estateID && (status == nil || p.Status == *status) {
				payments = append(payments, p)
			}
		}
		return nil
	})
	slices.SortFunc(payments, func(a, b domain.Payment) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return payments, err
}

func (r *paymentRepository) UpdateIfVersion(ctx context.Context, p *domain.Payment, expected int64) error {
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.payments[p.ID]
		if !ok || current.RowVersion != expected {
			return repository.ErrVersionConflict
		}
		current.Status = p.Status
		current.DecidedAt = p.DecidedAt
		current.DecidedBy = p.DecidedBy
		current.RowVersion = expected + 1
		st.payments[p.ID] = current
		p.RowVersion = current.RowVersion
		return nil
	})
}

type ticketRepository struct{ s *Store }

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.tickets[t.ID]; ok {
			return duplicate("tickets_pkey")
		}
		t.RowVersion = 1
		stored := *t
		stored.AttachmentRefs = slices.Clone(t.AttachmentRefs)
		st.tickets[t.ID] = stored
		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := r.s.read(ctx, func(st *state) error {
		var ok bool
		if t, ok = st.tickets[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.AttachmentRefs = slices.Clone(t.AttachmentRefs)
	return &t, nil
}

func (r *ticketRepository) ListByEstate(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.tickets {
			if t.EstateID == estateID && (status == nil || t.Status == *status) {
				t.AttachmentRefs = slices.Clone(t.AttachmentRefs)
				tickets = append(tickets, t)
			}
		}
		return nil
	})
	slices.SortFunc(tickets, func(a, b domain.Ticket) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return tickets, err
}

func (r *ticketRepository) UpdateIfVersion(ctx context.Context, t *domain.Ticket, expected int64) error {
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.tickets[t.ID]
		if !ok || current.RowVersion != expected {
			return repository.ErrVersionConflict
		}
		current.Status = t.Status
		current.UpdatedAt = t.UpdatedAt
		current.ResolvedAt = t.ResolvedAt
		current.RowVersion = expected + 1
		st.tickets[t.ID] = current
		t.RowVersion = current.RowVersion
		return nil
	})
}

type invoiceRepository struct{ s *Store }

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.invoices[inv.ID]; ok {
			return duplicate("invoices_pkey")
		}
		inv.RowVersion = 1
		st.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *invoiceRepository) ListOpenByTenant(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	return r.list(ctx, func(inv domain.Invoice) bool {
		return inv.TenantID == tenantID && inv.OutstandingCents() > 0
	})
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	return r.list(ctx, func(inv domain.Invoice) bool {
		return inv.DueDate.Before(asOf) && inv.OutstandingCents() > 0
	})
}

func (r *invoiceRepository) list(ctx context.Context, match func(domain.Invoice) bool) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.s.read(ctx, func(st *state) error {
		for _, inv := range st.invoices {
			if match(inv) {
				invoices = append(invoices, inv)
			}
		}
		return nil
	})
	slices.SortFunc(invoices, func(a, b domain.Invoice) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return invoices, err
}

func (r *invoiceRepository) UpdateIfVersion(ctx context.Context, inv *domain.Invoice, expected int64) error {
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.invoices[inv.ID]
		if !ok || current.RowVersion != expected {
			return repository.ErrVersionConflict
		}
		current.PaidCents = inv.PaidCents
		current.RowVersion = expected + 1
		st.invoices[inv.ID] = current
		inv.RowVersion = current.RowVersion
		return nil
	})
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
