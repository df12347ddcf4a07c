package domain

import "time"

type UnitStatus string

const (
	UnitStatusVacant           UnitStatus = "VACANT"
	UnitStatusOccupied         UnitStatus = "OCCUPIED"
	UnitStatusUnderMaintenance UnitStatus = "UNDER_MAINTENANCE"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitStatusVacant, UnitStatusOccupied, UnitStatusUnderMaintenance:
		return true
	}
	return false
}

type Unit struct {
	ID           string     `json:"id"`
	EstateID     string     `json:"estate_id"`
	Label        string     `json:"label"`
	BedroomCount int32      `json:"bedroom_count"`
	Kind         string     `json:"kind"`
	Status       UnitStatus `json:"status"`
	OccupantID   *string    `json:"occupant_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Versioned
}

// Consistent checks the occupant/status pairing: an occupant is set exactly
// when the unit is occupied.
func (u *Unit) Consistent() bool {
	return (u.OccupantID != nil) == (u.Status == UnitStatusOccupied)
}

// Occupy marks the unit as held by tenantID.
func (u *Unit) Occupy(tenantID string) {
	u.Status = UnitStatusOccupied
	u.OccupantID = &tenantID
}

// Release returns the unit to the vacant pool.
func (u *Unit) Release() {
	u.Status = UnitStatusVacant
	u.OccupantID = nil
}
