package domain

import "time"

// Estate is a managed residential property owned by exactly one manager.
type Estate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	ManagerID string    `json:"manager_id"`
	JoinCode  string    `json:"join_code"` // immutable once issued
	CreatedAt time.Time `json:"created_at"`
}

// IsManagedBy reports whether personID owns the estate.
func (e *Estate) IsManagedBy(personID string) bool {
	return e != nil && personID != "" && e.ManagerID == personID
}
