package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

type PaymentDecision string

const (
	PaymentDecisionApprove PaymentDecision = "APPROVE"
	PaymentDecisionReject  PaymentDecision = "REJECT"
)

// Status maps a decision to the terminal status it produces.
func (d PaymentDecision) Status() (PaymentStatus, bool) {
	switch d {
	case PaymentDecisionApprove:
		return PaymentStatusApproved, true
	case PaymentDecisionReject:
		return PaymentStatusRejected, true
	}
	return "", false
}

// Payment is a tenant-submitted proof of payment. Only Status, DecidedAt and
// DecidedBy change after creation, and only once.
type Payment struct {
	ID          string        `json:"id"`
	EstateID    string        `json:"estate_id"`
	TenantID    string        `json:"tenant_id"`
	AmountCents int64         `json:"amount_cents"`
	ProofRef    string        `json:"proof_ref"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
	DecidedBy   *string       `json:"decided_by,omitempty"`
	Versioned
}

func (p *Payment) Decided() bool {
	return PaymentTransitions.Terminal(p.Status)
}
