// audit.go - Helpers for recording lifecycle actions.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// NewAuditEntry builds an audit record with a fresh id and timestamp.
func NewAuditEntry(actor string, action AuditAction, schema SchemaName, name, detail string) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    action,
		Schema:    schema,
		Name:      name,
		Detail:    detail,
	}
}
