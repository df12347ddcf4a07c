package domain

import "time"

// Invoice is an amount a tenant owes. It carries no status machine; it is
// settled by approved payments applied against PaidCents.
type Invoice struct {
	ID          string    `json:"id"`
	EstateID    string    `json:"estate_id"`
	TenantID    string    `json:"tenant_id"`
	AmountCents int64     `json:"amount_cents"`
	PaidCents   int64     `json:"paid_cents"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	Versioned
}

func (i *Invoice) OutstandingCents() int64 {
	if i.PaidCents >= i.AmountCents {
		return 0
	}
	return i.AmountCents - i.PaidCents
}

// Apply settles up to amount against the invoice and returns what was used.
func (i *Invoice) Apply(amount int64) int64 {
	used := min(amount, i.OutstandingCents())
	if used > 0 {
		i.PaidCents += used
	}
	return used
}
