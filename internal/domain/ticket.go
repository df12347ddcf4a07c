package domain

import "time"

type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

func (s TicketStatus) Valid() bool {
	return s.Rank() > 0
}

// Rank orders ticket statuses along the lifecycle; zero means unknown.
func (s TicketStatus) Rank() int {
	switch s {
	case TicketStatusPending:
		return 1
	case TicketStatusInProgress:
		return 2
	case TicketStatusResolved:
		return 3
	}
	return 0
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is a maintenance issue filed by a tenant. UnitID is captured when the
// ticket is filed and never follows later reassignment.
type Ticket struct {
	ID             string         `json:"id"`
	EstateID       string         `json:"estate_id"`
	TenantID       string         `json:"tenant_id"`
	UnitID         string         `json:"unit_id"`
	Category       string         `json:"category"`
	Priority       TicketPriority `json:"priority"`
	Status         TicketStatus   `json:"status"`
	Description    string         `json:"description"`
	AttachmentRefs []string       `json:"attachment_refs"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	Versioned
}
