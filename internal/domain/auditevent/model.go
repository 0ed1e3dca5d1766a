// Package auditevent is the persistence sink for the access and auth
// trails: every audited request and every notable auth outcome becomes a
// row that compliance can query later.
package auditevent

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds.
const (
	KindAccess = "access"
	KindAuth   = "auth"
)

// Event maps to the audit_event table.
type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Kind      string    `db:"kind" json:"kind"`
	UserID    string    `db:"user_id" json:"user_id"`
	Roles     []string  `db:"roles" json:"roles,omitempty"`
	Action    string    `db:"action" json:"action"`
	Resource  string    `db:"resource" json:"resource,omitempty"`
	RecordID  string    `db:"record_id" json:"record_id,omitempty"`
	Path      string    `db:"path" json:"path"`
	Method    string    `db:"method" json:"method,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	RequestID string    `db:"request_id" json:"request_id,omitempty"`
	Status    int       `db:"status" json:"status"`
	Success   bool      `db:"success" json:"success"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
