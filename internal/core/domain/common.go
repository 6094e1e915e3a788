package domain

import "time"

// AuditFields holds standard audit information for domain entities.
// Version is bumped on every update and used for optimistic locking.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // Caller ID
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // Caller ID
	Version       int64     `json:"version"`
}

// Role is the caller role supplied by the identity provider.
type Role string

const (
	RoleGuest  Role = "GUEST"
	RoleHost   Role = "HOST"
	RoleAdmin  Role = "ADMIN"
	RoleSystem Role = "SYSTEM" // background workers and the webhook receiver
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Caller identifies who is invoking an operation.
type Caller struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemCaller is used by workers and the reconciliation processor.
var SystemCaller = Caller{ID: "system", Role: RoleSystem}

// IsPrivileged reports whether the caller may act on any booking.
func (c Caller) IsPrivileged() bool {
	return c.Role == RoleAdmin || c.Role == RoleSystem
}
