// Package invoicing owns the invoice lifecycle: instant-finalized creation,
// windowed edits, credit-note reversal and payment recording.
package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the closed lifecycle enum. Status mutates only through
// the transition guard; no operation flips it as a side effect.
type InvoiceStatus string

const (
	StatusFinalized InvoiceStatus = "FINALIZED"
	StatusEdited    InvoiceStatus = "EDITED"
	StatusCredited  InvoiceStatus = "CREDITED"
)

// PaymentStatus tracks settlement separately from the lifecycle.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// CanTransition reports whether a status move is legal.
//
// EDITED is a marker, not a gate: an edited or even credited invoice may be
// edited again; only payment state and document age gate edits. CREDITED
// is reachable from FINALIZED or EDITED and cannot be credited twice.
func CanTransition(from, to InvoiceStatus) bool {
	switch to {
	case StatusEdited:
		return from == StatusFinalized || from == StatusEdited || from == StatusCredited
	case StatusCredited:
		return from == StatusFinalized || from == StatusEdited
	default:
		return false
	}
}

// EditWindow is how long after creation an unpaid invoice stays editable.
const EditWindow = 24 * time.Hour

// Invoice is one commercial document. Credit notes are invoices with
// IsCreditNote set and every monetary field negated.
type Invoice struct {
	ID               int64           `json:"id"`
	CompanyID        int64           `json:"company_id"`
	DocumentNumber   string          `json:"document_number"`
	CustomerID       int64           `json:"customer_id"`
	DispatchID       *int64          `json:"dispatch_id,omitempty"`
	InvoiceDate      time.Time       `json:"invoice_date"`
	DueDate          time.Time       `json:"due_date"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	GSTAmount        decimal.Decimal `json:"gst_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Status           InvoiceStatus   `json:"status"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	BalanceDue       decimal.Decimal `json:"balance_due"`
	IsCreditNote     bool            `json:"is_credit_note"`
	CreditNoteFor    *int64          `json:"credit_note_for,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	FinalizedAt      time.Time       `json:"finalized_at"`
	FinalizedBy      int64           `json:"finalized_by"`
	EditedAt         *time.Time      `json:"edited_at,omitempty"`
	EditedBy         *int64          `json:"edited_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []InvoiceItem   `json:"items,omitempty"`
}

// InvoiceItem is one line of an invoice. Discounts are already folded into
// TaxableAmount; LineTotal is taxable plus the line's tax amounts. Exactly
// one of the CGST/SGST pair or IGST is non-zero per line.
type InvoiceItem struct {
	ID             int64           `json:"id"`
	InvoiceID      int64           `json:"invoice_id"`
	ProductID      int64           `json:"product_id"`
	Description    string          `json:"description,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitRate       decimal.Decimal `json:"unit_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	CGSTRate       decimal.Decimal `json:"cgst_rate"`
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTRate       decimal.Decimal `json:"sgst_rate"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	IGSTRate       decimal.Decimal `json:"igst_rate"`
	IGSTAmount     decimal.Decimal `json:"igst_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
	CreatedAt      time.Time       `json:"created_at"`
}
