package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest is one line of a creation or edit request. Rates come
// from the caller's product/tax metadata; every amount is recomputed by the
// tax calculator, so client-supplied amounts are never trusted.
//
// A line may pin its regime by supplying split rates (CGST+SGST for
// intra-state, IGST for inter-state). Lines carrying only GSTRate fall back
// to the invoice-level place-of-supply comparison. Supplying both splits on
// one line is rejected.
type CreateItemRequest struct {
	ProductID       int64           `json:"product_id" validate:"required,gt=0"`
	Description     string          `json:"description,omitempty" validate:"max=500"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitRate        decimal.Decimal `json:"unit_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	GSTRate         decimal.Decimal `json:"gst_rate"`
	CGSTRate        decimal.Decimal `json:"cgst_rate"`
	SGSTRate        decimal.Decimal `json:"sgst_rate"`
	IGSTRate        decimal.Decimal `json:"igst_rate"`
}

// CreateInvoiceRequest is the creation input consumed from the CRUD layer.
type CreateInvoiceRequest struct {
	CompanyID        int64               `json:"company_id" validate:"required,gt=0"`
	CustomerID       int64               `json:"customer_id" validate:"required,gt=0"`
	DispatchID       *int64              `json:"dispatch_id,omitempty"`
	InvoiceDate      time.Time           `json:"invoice_date" validate:"required"`
	DueDate          time.Time           `json:"due_date" validate:"required"`
	Items            []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountAmount   decimal.Decimal     `json:"discount_amount"`
	AdjustmentAmount decimal.Decimal     `json:"adjustment_amount"`
	Notes            string              `json:"notes,omitempty" validate:"max=2000"`
}

// EditInvoiceRequest replaces an invoice's items wholesale; same shape as
// creation minus the identity fields.
type EditInvoiceRequest struct {
	Items            []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountAmount   decimal.Decimal     `json:"discount_amount"`
	AdjustmentAmount decimal.Decimal     `json:"adjustment_amount"`
	Notes            string              `json:"notes,omitempty" validate:"max=2000"`
}

// CreditNoteRequest reverses an invoice after the edit window has closed.
type CreditNoteRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RecordPaymentRequest applies a payment against the balance due.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method,omitempty" validate:"max=50"`
}
