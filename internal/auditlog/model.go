// Package auditlog keeps the append-only trail of invoice mutations.
//
// The trail is pure traceability: it is never consulted for business-rule
// decisions (the edit window is computed from the invoice's own created_at),
// and rows are never updated or deleted.
package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType enumerates the recorded mutations.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeEdited   ChangeType = "edited"
	ChangeCredited ChangeType = "credited"
)

// Entry is one append-only audit record. EventID identifies the event across
// systems that ingest the trail; the serial ID orders it within one invoice.
type Entry struct {
	ID         int64          `json:"id"`
	EventID    uuid.UUID      `json:"event_id"`
	InvoiceID  int64          `json:"invoice_id"`
	ActorID    int64          `json:"actor_id"`
	ChangeType ChangeType     `json:"change_type"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}
