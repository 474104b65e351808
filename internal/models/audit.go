package models

import "time"

// Audit actions recorded for admin mutations and auth events.
const (
	AuditActionLogin    = "LOGIN"
	AuditActionCreate   = "CREATE"
	AuditActionUpdate   = "UPDATE"
	AuditActionDelete   = "DELETE"
	AuditActionActivate = "ACTIVATE"
	AuditActionExport   = "EXPORT"
)

// AuditLog records who changed what and when.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
