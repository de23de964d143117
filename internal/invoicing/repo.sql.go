package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const invoiceColumns = `id, company_id, document_number, customer_id, dispatch_id,
invoice_date, due_date,
subtotal::text, gst_amount::text, discount_amount::text, adjustment_amount::text, total_amount::text,
status, payment_status, total_paid::text, balance_due::text,
is_credit_note, credit_note_for, notes, finalized_at, finalized_by, edited_at, edited_by, created_at`

func (r *repository) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO invoices
(company_id, document_number, customer_id, dispatch_id, invoice_date, due_date,
 subtotal, gst_amount, discount_amount, adjustment_amount, total_amount,
 status, payment_status, total_paid, balance_due,
 is_credit_note, credit_note_for, notes, finalized_at, finalized_by)
VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10::numeric,$11::numeric,
        $12,$13,$14::numeric,$15::numeric,$16,$17,$18,$19,$20)
RETURNING id, created_at`,
		inv.CompanyID, inv.DocumentNumber, inv.CustomerID, inv.DispatchID,
		inv.InvoiceDate, inv.DueDate,
		inv.Subtotal.StringFixed(2), inv.GSTAmount.StringFixed(2),
		inv.DiscountAmount.StringFixed(2), inv.AdjustmentAmount.StringFixed(2),
		inv.TotalAmount.StringFixed(2),
		inv.Status, inv.PaymentStatus,
		inv.TotalPaid.StringFixed(2), inv.BalanceDue.StringFixed(2),
		inv.IsCreditNote, inv.CreditNoteFor, inv.Notes, inv.FinalizedAt, inv.FinalizedBy).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Invoice{}, fmt.Errorf("document number %s: %w", inv.DocumentNumber, shared.ErrDuplicate)
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) InsertItem(ctx context.Context, item InvoiceItem) (InvoiceItem, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO invoice_items
(invoice_id, product_id, description, quantity, unit_rate, discount_amount, taxable_amount,
 cgst_rate, cgst_amount, sgst_rate, sgst_amount, igst_rate, igst_amount, line_total)
VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,
        $8::numeric,$9::numeric,$10::numeric,$11::numeric,$12::numeric,$13::numeric,$14::numeric)
RETURNING id, created_at`,
		item.InvoiceID, item.ProductID, item.Description,
		item.Quantity.String(), item.UnitRate.String(),
		item.DiscountAmount.StringFixed(2), item.TaxableAmount.StringFixed(2),
		item.CGSTRate.String(), item.CGSTAmount.StringFixed(2),
		item.SGSTRate.String(), item.SGSTAmount.StringFixed(2),
		item.IGSTRate.String(), item.IGSTAmount.StringFixed(2),
		item.LineTotal.StringFixed(2)).
		Scan(&item.ID, &item.CreatedAt)
	return item, err
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, err
}

func (r *repository) ListInvoices(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+`
FROM invoices WHERE company_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *repository) ListItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	rows, err := r.db.Query(ctx, `SELECT id, invoice_id, product_id, description,
quantity::text, unit_rate::text, discount_amount::text, taxable_amount::text,
cgst_rate::text, cgst_amount::text, sgst_rate::text, sgst_amount::text,
igst_rate::text, igst_amount::text, line_total::text, created_at
FROM invoice_items WHERE invoice_id = $1 ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InvoiceItem
	for rows.Next() {
		var item InvoiceItem
		var qty, rate, disc, taxable, cr, ca, sr, sa, ir, ia, total string
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ProductID, &item.Description,
			&qty, &rate, &disc, &taxable, &cr, &ca, &sr, &sa, &ir, &ia, &total,
			&item.CreatedAt); err != nil {
			return nil, err
		}
		fields := []struct {
			dst *decimal.Decimal
			src string
		}{
			{&item.Quantity, qty}, {&item.UnitRate, rate},
			{&item.DiscountAmount, disc}, {&item.TaxableAmount, taxable},
			{&item.CGSTRate, cr}, {&item.CGSTAmount, ca},
			{&item.SGSTRate, sr}, {&item.SGSTAmount, sa},
			{&item.IGSTRate, ir}, {&item.IGSTAmount, ia},
			{&item.LineTotal, total},
		}
		for _, f := range fields {
			d, err := decimal.NewFromString(f.src)
			if err != nil {
				return nil, err
			}
			*f.dst = d
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) UpdateTotals(ctx context.Context, inv Invoice) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET
subtotal = $2::numeric, gst_amount = $3::numeric, discount_amount = $4::numeric,
adjustment_amount = $5::numeric, total_amount = $6::numeric, balance_due = $7::numeric,
notes = $8, status = $9, edited_at = $10, edited_by = $11
WHERE id = $1`,
		inv.ID,
		inv.Subtotal.StringFixed(2), inv.GSTAmount.StringFixed(2),
		inv.DiscountAmount.StringFixed(2), inv.AdjustmentAmount.StringFixed(2),
		inv.TotalAmount.StringFixed(2), inv.BalanceDue.StringFixed(2),
		inv.Notes, inv.Status, inv.EditedAt, inv.EditedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdatePayment(ctx context.Context, id int64, totalPaid, balanceDue decimal.Decimal, status PaymentStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET
total_paid = $2::numeric, balance_due = $3::numeric, payment_status = $4
WHERE id = $1`,
		id, totalPaid.StringFixed(2), balanceDue.StringFixed(2), status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteItems(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	return err
}

func (r *repository) DeleteInvoice(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var inv Invoice
	var subtotal, gst, disc, adj, total, paid, due string
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.DocumentNumber, &inv.CustomerID, &inv.DispatchID,
		&inv.InvoiceDate, &inv.DueDate,
		&subtotal, &gst, &disc, &adj, &total,
		&inv.Status, &inv.PaymentStatus, &paid, &due,
		&inv.IsCreditNote, &inv.CreditNoteFor, &inv.Notes,
		&inv.FinalizedAt, &inv.FinalizedBy, &inv.EditedAt, &inv.EditedBy, &inv.CreatedAt)
	if err != nil {
		return Invoice{}, err
	}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&inv.Subtotal, subtotal}, {&inv.GSTAmount, gst},
		{&inv.DiscountAmount, disc}, {&inv.AdjustmentAmount, adj},
		{&inv.TotalAmount, total}, {&inv.TotalPaid, paid}, {&inv.BalanceDue, due},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return Invoice{}, err
		}
		*f.dst = d
	}
	return inv, nil
}
