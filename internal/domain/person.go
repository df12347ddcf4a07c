package domain

import "time"

type Role string

const (
	RoleManager Role = "MANAGER"
	RoleTenant  Role = "TENANT"
)

func (r Role) Valid() bool {
	return r == RoleManager || r == RoleTenant
}

type VerificationStatus string

const (
	VerificationUnset    VerificationStatus = "UNSET"
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
)

// Person is an account holder. Persons are created at registration and are
// never owned by an estate; a tenant only references one once assigned.
//
// A tenant with EstateID set and VerificationStatus PENDING is an outstanding
// access request.
type Person struct {
	ID                 string             `json:"id"`
	Role               Role               `json:"role"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	EstateID           *string            `json:"estate_id,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	AssignedUnitID     *string            `json:"assigned_unit_id,omitempty"`
	RequestedAt        *time.Time         `json:"requested_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	Versioned
}

func (p *Person) IsTenant() bool  { return p != nil && p.Role == RoleTenant }
func (p *Person) IsManager() bool { return p != nil && p.Role == RoleManager }

// HasPendingRequest reports whether the tenant has an outstanding access request.
func (p *Person) HasPendingRequest() bool {
	return p.VerificationStatus == VerificationPending && p.EstateID != nil
}

// PendingFor reports whether the tenant's outstanding request targets estateID.
func (p *Person) PendingFor(estateID string) bool {
	return p.HasPendingRequest() && *p.EstateID == estateID
}

// BelongsTo reports whether the person is affiliated with estateID, either as
// an assigned tenant or through an outstanding request.
func (p *Person) BelongsTo(estateID string) bool {
	return p.EstateID != nil && *p.EstateID == estateID
}

// Consistent checks that verification and assignment agree.
func (p *Person) Consistent() bool {
	if p.Role != RoleTenant {
		return true
	}
	return (p.VerificationStatus == VerificationVerified) == (p.AssignedUnitID != nil)
}

// Assign completes verification into unit u.
func (p *Person) Assign(u *Unit, at time.Time) {
	estateID := u.EstateID
	unitID := u.ID
	p.EstateID = &estateID
	p.AssignedUnitID = &unitID
	p.VerificationStatus = VerificationVerified
	p.UpdatedAt = at
}

// Detach clears any estate affiliation and verification.
func (p *Person) Detach(at time.Time) {
	p.EstateID = nil
	p.AssignedUnitID = nil
	p.RequestedAt = nil
	p.VerificationStatus = VerificationUnset
	p.UpdatedAt = at
}
