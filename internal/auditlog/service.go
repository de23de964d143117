package auditlog

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// Repository persists audit entries. Append and read only.
type Repository interface {
	Insert(ctx context.Context, entry Entry) (Entry, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]Entry, error)
}

// Service appends and reads the audit trail.
type Service struct {
	repo Repository
}

// NewService constructs an audit log service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append records one mutation against an invoice.
func (s *Service) Append(ctx context.Context, invoiceID, actorID int64, change ChangeType, payload map[string]any) (Entry, error) {
	if invoiceID == 0 {
		return Entry{}, shared.Validationf("audit: invoice id required")
	}
	switch change {
	case ChangeCreated, ChangeEdited, ChangeCredited:
	default:
		return Entry{}, shared.Validationf("audit: unknown change type %q", change)
	}
	return s.repo.Insert(ctx, Entry{
		EventID:    uuid.New(),
		InvoiceID:  invoiceID,
		ActorID:    actorID,
		ChangeType: change,
		Payload:    payload,
	})
}

// Trail returns the full trail for one invoice, oldest first.
func (s *Service) Trail(ctx context.Context, invoiceID int64) ([]Entry, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}
