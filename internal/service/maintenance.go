package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"
	"estatehub-backend/internal/storage"

	"github.com/google/uuid"
)

type maintenanceTracker struct {
	dir       repository.Directory
	artifacts storage.ArtifactStore
	now       func() time.Time
}

func NewMaintenanceTracker(dir repository.Directory, artifacts storage.ArtifactStore) MaintenanceTracker {
	return &maintenanceTracker{dir: dir, artifacts: artifacts, now: time.Now}
}

// StoreAttachments uploads ticket photos for an assigned tenant. Empty
// artifacts are skipped.
func (s *maintenanceTracker) StoreAttachments(ctx context.Context, tenantID string, attachments []Artifact) ([]string, error) {
	if !slices.ContainsFunc(attachments, func(a Artifact) bool { return !a.Empty() }) {
		return []string{}, nil
	}
	if _, err := assignedTenant(ctx, s.dir, tenantID); err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(attachments))
	for _, a := range attachments {
		if a.Empty() {
			continue
		}
		ref, err := s.artifacts.Store(ctx, a.Data, attachmentFolder, a.ContentType)
		if err != nil {
			return nil, uploadError(err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *maintenanceTracker) FileTicket(ctx context.Context, tenantID string, in TicketInput, attachmentRefs []string) (*domain.Ticket, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	// The unit is captured now; later reassignment does not follow the ticket.
	tenant, err := assignedTenant(ctx, s.dir, tenantID)
	if err != nil {
		return nil, err
	}
	refs := attachmentRefs
	if refs == nil {
		refs = []string{}
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:             uuid.NewString(),
		EstateID:       *tenant.EstateID,
		TenantID:       tenant.ID,
		UnitID:         *tenant.AssignedUnitID,
		Category:       in.Category,
		Priority:       in.Priority,
		Status:         domain.TicketStatusPending,
		Description:    in.Description,
		AttachmentRefs: refs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.dir.Tickets().Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return ticket, nil
}

func (s *maintenanceTracker) AdvanceStatus(ctx context.Context, estateID, ticketID string, next domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	if !next.Valid() {
		return nil, "", fmt.Errorf("%w: unknown ticket status %q", domain.ErrInvalidInput, next)
	}

	ticket, err := s.dir.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get ticket: %w", notFoundAs(err, domain.ErrTicketNotFound))
	}
	if ticket.EstateID != estateID {
		return nil, "", domain.ErrForbidden
	}
	if !domain.TicketTransitions.Allowed(ticket.Status, next) {
		return nil, "", fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, ticket.Status, next)
	}

	prev, expected := ticket.Status, ticket.RowVersion
	now := s.now()
	ticket.Status = next
	ticket.UpdatedAt = now
	if next == domain.TicketStatusResolved {
		ticket.ResolvedAt = &now
	}

	if err := s.dir.Tickets().UpdateIfVersion(ctx, ticket, expected); err != nil {
		if lostRace(err) {
			return nil, "", s.classifyStatusRace(ctx, ticketID, next)
		}
		return nil, "", fmt.Errorf("failed to advance ticket: %w", err)
	}
	return ticket, prev, nil
}

// classifyStatusRace re-checks the transition against the winner's status: a
// move that is no longer legal is reported as such, anything else is a
// retryable conflict.
func (s *maintenanceTracker) classifyStatusRace(ctx context.Context, ticketID string, next domain.TicketStatus) error {
	fresh, err := s.dir.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("failed to get ticket: %w", notFoundAs(err, domain.ErrTicketNotFound))
	}
	if !domain.TicketTransitions.Allowed(fresh.Status, next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, fresh.Status, next)
	}
	return domain.ErrConflict
}

func (s *maintenanceTracker) ListTickets(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error) {
	if status != nil && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	tickets, err := s.dir.Tickets().ListByEstate(ctx, estateID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}
