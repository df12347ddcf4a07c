package engine

import (
	"context"
	"fmt"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/service"
)

// FileTicket opens a maintenance ticket against the acting tenant's current unit.
func (e *Engine) FileTicket(ctx context.Context, in service.TicketInput, attachments []service.Artifact) (*domain.Ticket, error) {
	if err := in.Normalize(); err != nil {
		return nil, e.rejectInput("FileTicket", err)
	}

	var (
		out  *domain.Ticket
		refs []string
	)
	upload := func(ctx context.Context, actor *domain.Person) error {
		if err := requireTenant(actor); err != nil {
			return err
		}
		stored, err := e.maintenance.StoreAttachments(ctx, actor.ID, attachments)
		refs = stored
		return err
	}
	err := e.stageAndMutate(ctx, "FileTicket", upload, func(ctx context.Context, actor *domain.Person, fx *effects) error {
		if err := requireTenant(actor); err != nil {
			return err
		}
		t, err := e.maintenance.FileTicket(ctx, actor.ID, in, refs)
		if err != nil {
			return err
		}
		estate, err := e.estates.GetEstate(ctx, t.EstateID)
		if err != nil {
			return err
		}
		fx.notify(estate.ManagerID, "New maintenance ticket",
			fmt.Sprintf("%s filed a %s priority %s ticket.", actor.Name, t.Priority, t.Category),
			map[string]string{"type": "TICKET_FILED", "ticket_id": t.ID})
		out = t
		return nil
	})
	return out, err
}

// AdvanceStatus moves a ticket of the acting manager's estate forward. Status
// never regresses.
func (e *Engine) AdvanceStatus(ctx context.Context, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	if !next.Valid() {
		return nil, e.rejectInput("AdvanceStatus", fmt.Errorf("%w: unknown ticket status %q", domain.ErrInvalidInput, next))
	}

	var out *domain.Ticket
	err := e.mutate(ctx, "AdvanceStatus", func(ctx context.Context, actor *domain.Person, fx *effects) error {
		estate, err := e.managedEstate(ctx, actor)
		if err != nil {
			return err
		}
		t, before, err := e.maintenance.AdvanceStatus(ctx, estate.ID, ticketID, next)
		if err != nil {
			return err
		}
		fx.moved("ticket", t.ID, string(before), string(t.Status))
		fx.notify(t.TenantID, "Ticket "+statusWord(string(t.Status)),
			fmt.Sprintf("Your %s ticket is now %s.", t.Category, statusWord(string(t.Status))),
			map[string]string{"type": "TICKET_STATUS", "ticket_id": t.ID, "status": string(t.Status)})
		out = t
		return nil
	})
	return out, err
}

// ListTickets lists an estate's tickets. Tenants only see their own.
func (e *Engine) ListTickets(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := e.query(ctx, "ListTickets", func(ctx context.Context, actor *domain.Person) error {
		ownOnly, err := e.estateView(ctx, actor, estateID)
		if err != nil {
			return err
		}
		tickets, err := e.maintenance.ListTickets(ctx, estateID, status)
		if err != nil {
			return err
		}
		if ownOnly {
			tickets = filter(tickets, func(t domain.Ticket) bool { return t.TenantID == actor.ID })
		}
		out = tickets
		return nil
	})
	return out, err
}
