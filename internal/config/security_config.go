package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// RouteSecurityConfig maps "METHOD path-template" keys, as registered on the
// router, to their required security level.
var RouteSecurityConfig = map[string]SecurityLevel{
	"GET /healthz": SecurityPublic,
	"GET /metrics": SecurityPublic,

	// Payment proofs and ticket photos are only served to signed-in users.
	"GET /files/{key:.+}": SecurityAccess,

	// Accounts
	"POST /api/v1/accounts": SecurityAccess,
	"GET /api/v1/me":        SecurityAccess,

	// Estates & units
	"POST /api/v1/estates":                            SecurityAccess,
	"POST /api/v1/estates/{estateId}/units":           SecurityAccess,
	"GET /api/v1/estates/{estateId}/units/vacant":     SecurityAccess,
	"POST /api/v1/units/{unitId}/vacate":              SecurityAccess,
	"POST /api/v1/units/{unitId}/maintenance":         SecurityAccess,
	"GET /api/v1/estates/{estateId}/access-requests":  SecurityAccess,
	"POST /api/v1/access-requests":                    SecurityAccess,
	"POST /api/v1/access-requests/{tenantId}/approve": SecurityAccess,
	"POST /api/v1/access-requests/{tenantId}/decline": SecurityAccess,

	// Payments & invoices
	"POST /api/v1/payments":                      SecurityAccess,
	"POST /api/v1/payments/{paymentId}/decision": SecurityAccess,
	"GET /api/v1/estates/{estateId}/payments":    SecurityAccess,
	"GET /api/v1/tenants/{tenantId}/balance":     SecurityAccess,
	"POST /api/v1/invoices":                      SecurityAccess,
	"GET /api/v1/invoices/overdue":               SecurityAccess,

	// Tickets
	"POST /api/v1/tickets":                   SecurityAccess,
	"POST /api/v1/tickets/{ticketId}/status": SecurityAccess,
	"GET /api/v1/estates/{estateId}/tickets": SecurityAccess,
}

// GetSecurityLevel returns the security level for a route key
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAccess
}
