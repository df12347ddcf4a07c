package domain

// Notification is a best-effort message sent to a person after a workflow
// decision commits. Delivery failure never affects the decision.
type Notification struct {
	RecipientID string            `json:"recipient_id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Attributes  map[string]string `json:"attributes"`
}
