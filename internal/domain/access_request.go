package domain

import "time"

// AccessRequest is the read view of a tenant's outstanding request to join an
// estate. It is not stored; it is derived from a pending Person.
type AccessRequest struct {
	TenantID    string    `json:"tenant_id"`
	EstateID    string    `json:"estate_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}

// AccessRequestOf derives the request view from a pending tenant.
func AccessRequestOf(p *Person) (AccessRequest, bool) {
	if !p.IsTenant() || !p.HasPendingRequest() {
		return AccessRequest{}, false
	}
	req := AccessRequest{
		TenantID: p.ID,
		EstateID: *p.EstateID,
		Name:     p.Name,
		Email:    p.Email,
	}
	if p.RequestedAt != nil {
		req.RequestedAt = *p.RequestedAt
	}
	return req, true
}
