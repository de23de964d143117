package invoicing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository exposes the single-statement storage calls the lifecycle
// composes. No call opens a transaction; multi-step writes are sagas in the
// service, unwound by compensating deletes and restores on failure.
//
// InsertInvoice must surface a uniqueness violation on
// (company_id, document_number) as shared.ErrDuplicate; the sequence
// generator's retry contract depends on it.
type Repository interface {
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	InsertItem(ctx context.Context, item InvoiceItem) (InvoiceItem, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error)
	ListInvoices(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error)

	// UpdateTotals rewrites the monetary aggregates, status and edit stamps.
	UpdateTotals(ctx context.Context, inv Invoice) error
	// UpdateStatus flips the lifecycle status only; callers go through the
	// transition guard first.
	UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error
	// UpdatePayment rewrites the settlement fields.
	UpdatePayment(ctx context.Context, id int64, totalPaid, balanceDue decimal.Decimal, status PaymentStatus) error

	// Compensation paths. Idempotent: deleting what is already gone is not
	// an error, since a failed saga may be retried.
	DeleteItems(ctx context.Context, invoiceID int64) error
	DeleteInvoice(ctx context.Context, id int64) error
}

// nowFunc lets tests pin the clock.
type nowFunc func() time.Time
