package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/auditlog"
	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
	"github.com/ledgerline-erp/ledgerline-erp/internal/masterdata"
	"github.com/ledgerline-erp/ledgerline-erp/internal/sequence"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
	"github.com/ledgerline-erp/ledgerline-erp/internal/tax"
)

// JournalPort is the slice of the ledger engine the lifecycle drives.
type JournalPort interface {
	Post(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error)
	Unpost(ctx context.Context, entryID int64) error
	EntryByTransaction(ctx context.Context, companyID int64, txType ledger.TransactionType, txID int64) (ledger.JournalEntry, error)
	EntriesByTransaction(ctx context.Context, companyID, txID int64) ([]ledger.JournalEntry, error)
	Account(ctx context.Context, companyID int64, code string) (ledger.Account, error)
	AccountByID(ctx context.Context, id int64) (ledger.Account, error)
}

// AuditPort records lifecycle mutations.
type AuditPort interface {
	Append(ctx context.Context, invoiceID, actorID int64, change auditlog.ChangeType, payload map[string]any) (auditlog.Entry, error)
}

// ViewInvalidator drops cached read views after a mutation.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, invoiceID int64)
}

// Service owns invoice state transitions and their eligibility rules.
type Service struct {
	repo         Repository
	customers    masterdata.CustomerDirectory
	dispatches   masterdata.DispatchDirectory
	journal      JournalPort
	seq          *sequence.Generator
	audit        AuditPort
	authz        shared.Authorizer
	logger       *slog.Logger
	companyState string
	views        ViewInvalidator
	now          nowFunc
}

// NewService constructs the invoice lifecycle service. companyState is the
// seller's state, compared against the customer's place of supply to pick
// the default tax regime per invoice.
func NewService(
	repo Repository,
	customers masterdata.CustomerDirectory,
	dispatches masterdata.DispatchDirectory,
	journal JournalPort,
	seq *sequence.Generator,
	audit AuditPort,
	authz shared.Authorizer,
	logger *slog.Logger,
	companyState string,
) *Service {
	return &Service{
		repo:         repo,
		customers:    customers,
		dispatches:   dispatches,
		journal:      journal,
		seq:          seq,
		audit:        audit,
		authz:        authz,
		logger:       logger,
		companyState: companyState,
		now:          time.Now,
	}
}

// WithNow pins the clock for tests.
func (s *Service) WithNow(now nowFunc) {
	if now != nil {
		s.now = now
	}
}

// WithViewCache attaches a read-view invalidator.
func (s *Service) WithViewCache(views ViewInvalidator) {
	s.views = views
}

// Create finalizes a new invoice in one shot: tax computation, document
// number, persistence, journal posting, optional COGS, audit trail.
//
// The sub-steps run strictly in sequence. Journal failure unwinds the
// persisted invoice and items; COGS failure is logged and tolerated because
// inventory costing is secondary to the sale's financial validity.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(ctx, actor, shared.ActionCreate, shared.ResourceInvoice) {
		return nil, shared.ErrForbidden
	}

	customer, err := s.customers.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	taxIn, err := s.taxInput(req.Items, req.DiscountAmount, req.AdjustmentAmount, customer)
	if err != nil {
		return nil, err
	}
	calc, err := tax.Calculate(taxIn)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv, err := s.insertNumbered(ctx, func(number string) Invoice {
		return Invoice{
			CompanyID:        req.CompanyID,
			DocumentNumber:   number,
			CustomerID:       req.CustomerID,
			DispatchID:       req.DispatchID,
			InvoiceDate:      req.InvoiceDate,
			DueDate:          req.DueDate,
			Subtotal:         calc.Subtotal,
			GSTAmount:        calc.GSTAmount,
			DiscountAmount:   calc.DiscountAmount,
			AdjustmentAmount: calc.AdjustmentAmount,
			TotalAmount:      calc.TotalAmount,
			Status:           StatusFinalized,
			PaymentStatus:    PaymentUnpaid,
			TotalPaid:        decimal.Zero,
			BalanceDue:       calc.TotalAmount,
			Notes:            req.Notes,
			FinalizedAt:      now,
			FinalizedBy:      actor.ID,
		}
	}, sequence.KindInvoice, req.CompanyID, req.InvoiceDate)
	if err != nil {
		return nil, err
	}

	items, err := s.insertItems(ctx, inv.ID, calc.Lines)
	if err != nil {
		s.compensateInvoice(ctx, inv.ID)
		return nil, err
	}
	inv.Items = items

	posting, err := s.invoicePosting(ctx, inv, customer.Name)
	if err != nil {
		s.compensateInvoice(ctx, inv.ID)
		return nil, err
	}
	entry, err := s.journal.Post(ctx, posting)
	if err != nil {
		s.compensateInvoice(ctx, inv.ID)
		return nil, err
	}

	if inv.DispatchID != nil {
		if err := s.postCOGS(ctx, inv, actor.ID); err != nil {
			s.logger.Warn("cogs posting failed; invoice remains valid",
				slog.Int64("invoice_id", inv.ID),
				slog.String("document_number", inv.DocumentNumber),
				slog.Any("error", err))
		}
	}

	if _, err := s.audit.Append(ctx, inv.ID, actor.ID, auditlog.ChangeCreated, map[string]any{
		"document_number":  inv.DocumentNumber,
		"total_amount":     inv.TotalAmount.StringFixed(2),
		"journal_entry_id": entry.ID,
	}); err != nil {
		s.logger.Warn("audit append failed; invoice remains valid",
			slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
	}
	return &inv, nil
}

// Edit replaces an invoice's items within the 24h unpaid window.
//
// Prior lifecycle status is deliberately not a gate: an edited or credited
// invoice can be re-edited as long as age and payment allow. Credit notes
// are terminal and never editable.
func (s *Service) Edit(ctx context.Context, id int64, req EditInvoiceRequest) (*Invoice, error) {
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(ctx, actor, shared.ActionEdit, shared.ResourceInvoice) {
		return nil, shared.ErrForbidden
	}

	inv, err := s.getWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.IsCreditNote {
		return nil, shared.BusinessRulef("credit notes are terminal and cannot be edited")
	}
	now := s.now()
	if now.Sub(inv.CreatedAt) >= EditWindow {
		return nil, shared.BusinessRulef("edit window of %s has closed; create a credit note instead", EditWindow)
	}
	if inv.PaymentStatus != PaymentUnpaid {
		return nil, shared.BusinessRulef("payments have been recorded; create a credit note instead")
	}
	if !CanTransition(inv.Status, StatusEdited) {
		return nil, shared.BusinessRulef("invoice in status %s cannot be edited", inv.Status)
	}

	customer, err := s.customers.GetCustomer(ctx, inv.CustomerID)
	if err != nil {
		return nil, err
	}
	taxIn, err := s.taxInput(req.Items, req.DiscountAmount, req.AdjustmentAmount, customer)
	if err != nil {
		return nil, err
	}
	calc, err := tax.Calculate(taxIn)
	if err != nil {
		return nil, err
	}

	oldItems := inv.Items
	oldAggregates := map[string]any{
		"subtotal":          inv.Subtotal.StringFixed(2),
		"gst_amount":        inv.GSTAmount.StringFixed(2),
		"discount_amount":   inv.DiscountAmount.StringFixed(2),
		"adjustment_amount": inv.AdjustmentAmount.StringFixed(2),
		"total_amount":      inv.TotalAmount.StringFixed(2),
	}

	if err := s.repo.DeleteItems(ctx, id); err != nil {
		return nil, shared.Persistencef("delete items: %v", err)
	}
	newItems, err := s.insertItems(ctx, id, calc.Lines)
	if err != nil {
		s.restoreItems(ctx, id, oldItems)
		return nil, err
	}

	updated := inv
	updated.Subtotal = calc.Subtotal
	updated.GSTAmount = calc.GSTAmount
	updated.DiscountAmount = calc.DiscountAmount
	updated.AdjustmentAmount = calc.AdjustmentAmount
	updated.TotalAmount = calc.TotalAmount
	updated.BalanceDue = calc.TotalAmount.Sub(inv.TotalPaid)
	updated.Notes = req.Notes
	updated.Status = StatusEdited
	updated.EditedAt = &now
	editedBy := actor.ID
	updated.EditedBy = &editedBy
	updated.Items = newItems

	if err := s.repo.UpdateTotals(ctx, updated); err != nil {
		s.restoreItems(ctx, id, oldItems)
		return nil, shared.Persistencef("update totals: %v", err)
	}

	if err := s.repostInvoiceEntry(ctx, inv, updated, customer.Name); err != nil {
		s.restoreItems(ctx, id, oldItems)
		if rerr := s.repo.UpdateTotals(ctx, inv); rerr != nil {
			s.logger.Error("edit compensation failed", slog.Int64("invoice_id", id), slog.Any("error", rerr))
		}
		return nil, err
	}

	if _, err := s.audit.Append(ctx, id, actor.ID, auditlog.ChangeEdited, map[string]any{
		"old": oldAggregates,
		"new": map[string]any{
			"subtotal":          updated.Subtotal.StringFixed(2),
			"gst_amount":        updated.GSTAmount.StringFixed(2),
			"discount_amount":   updated.DiscountAmount.StringFixed(2),
			"adjustment_amount": updated.AdjustmentAmount.StringFixed(2),
			"total_amount":      updated.TotalAmount.StringFixed(2),
		},
	}); err != nil {
		s.logger.Warn("audit append failed; edit remains valid",
			slog.Int64("invoice_id", id), slog.Any("error", err))
	}
	s.invalidateView(ctx, id)
	return &updated, nil
}

// Credit derives a reversing credit note; see creditnote.go.
func (s *Service) Credit(ctx context.Context, originalID int64, reason string) (*Invoice, error) {
	return s.creditNote(ctx, originalID, reason)
}

// Get returns an invoice with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.getWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List pages invoices for a company, newest first.
func (s *Service) List(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, companyID, limit, offset)
}

// ---- internal steps ----

// insertNumbered runs the bounded generate/insert retry loop. A duplicate
// document number is an expected race outcome, not a failure: the unique
// constraint rejects it and the next attempt re-reads the counter.
func (s *Service) insertNumbered(ctx context.Context, build func(number string) Invoice, kind sequence.Kind, companyID int64, at time.Time) (Invoice, error) {
	for attempt := 1; attempt <= sequence.MaxAttempts; attempt++ {
		number, err := s.seq.Next(ctx, companyID, kind, at)
		if err != nil {
			return Invoice{}, err
		}
		inserted, err := s.repo.InsertInvoice(ctx, build(number))
		if err == nil {
			return inserted, nil
		}
		if errors.Is(err, shared.ErrDuplicate) {
			s.logger.Warn("document number collision, retrying",
				slog.String("number", number), slog.Int("attempt", attempt))
			continue
		}
		return Invoice{}, shared.Persistencef("insert invoice: %v", err)
	}
	return Invoice{}, shared.Persistencef("document numbering exhausted %d attempts", sequence.MaxAttempts)
}

func (s *Service) insertItems(ctx context.Context, invoiceID int64, lines []tax.LineTax) ([]InvoiceItem, error) {
	items := make([]InvoiceItem, 0, len(lines))
	for idx, line := range lines {
		item, err := s.repo.InsertItem(ctx, InvoiceItem{
			InvoiceID:      invoiceID,
			ProductID:      line.ProductID,
			Description:    line.Description,
			Quantity:       line.Quantity,
			UnitRate:       line.UnitRate,
			DiscountAmount: line.DiscountAmount,
			TaxableAmount:  line.TaxableAmount,
			CGSTRate:       line.CGSTRate,
			CGSTAmount:     line.CGSTAmount,
			SGSTRate:       line.SGSTRate,
			SGSTAmount:     line.SGSTAmount,
			IGSTRate:       line.IGSTRate,
			IGSTAmount:     line.IGSTAmount,
			LineTotal:      line.LineTotal,
		})
		if err != nil {
			return nil, shared.Persistencef("insert item %d: %v", idx+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) getWithItems(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Invoice{}, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
		}
		return Invoice{}, shared.Persistencef("get invoice: %v", err)
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return Invoice{}, shared.Persistencef("list items: %v", err)
	}
	inv.Items = items
	return inv, nil
}

// taxInput resolves the regime per line. Lines pinning split rates win;
// the rest follow the place-of-supply comparison.
func (s *Service) taxInput(items []CreateItemRequest, discount, adjustment decimal.Decimal, customer masterdata.CustomerSummary) (tax.Input, error) {
	interState := customer.State != "" && !strings.EqualFold(strings.TrimSpace(customer.State), strings.TrimSpace(s.companyState))
	in := tax.Input{DiscountAmount: discount, AdjustmentAmount: adjustment}
	for idx, item := range items {
		if item.IGSTRate.Sign() > 0 && (item.CGSTRate.Sign() > 0 || item.SGSTRate.Sign() > 0) {
			return tax.Input{}, shared.Validationf("line %d: cannot mix CGST/SGST with IGST", idx+1)
		}
		line := tax.LineInput{
			ProductID:       item.ProductID,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitRate:        item.UnitRate,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  item.DiscountAmount,
			GSTRate:         item.GSTRate,
			InterState:      interState,
		}
		switch {
		case item.IGSTRate.Sign() > 0:
			line.InterState = true
			line.GSTRate = item.IGSTRate
		case item.CGSTRate.Sign() > 0 || item.SGSTRate.Sign() > 0:
			line.InterState = false
			line.GSTRate = item.CGSTRate.Add(item.SGSTRate)
		}
		in.Lines = append(in.Lines, line)
	}
	return in, nil
}

func (s *Service) compensateInvoice(ctx context.Context, invoiceID int64) {
	if err := s.repo.DeleteItems(ctx, invoiceID); err != nil {
		s.logger.Error("compensating item delete failed", slog.Int64("invoice_id", invoiceID), slog.Any("error", err))
	}
	if err := s.repo.DeleteInvoice(ctx, invoiceID); err != nil {
		s.logger.Error("compensating invoice delete failed", slog.Int64("invoice_id", invoiceID), slog.Any("error", err))
	}
}

func (s *Service) restoreItems(ctx context.Context, invoiceID int64, items []InvoiceItem) {
	if err := s.repo.DeleteItems(ctx, invoiceID); err != nil {
		s.logger.Error("compensating item delete failed", slog.Int64("invoice_id", invoiceID), slog.Any("error", err))
		return
	}
	for _, item := range items {
		item.ID = 0
		item.InvoiceID = invoiceID
		if _, err := s.repo.InsertItem(ctx, item); err != nil {
			s.logger.Error("compensating item restore failed", slog.Int64("invoice_id", invoiceID), slog.Any("error", err))
		}
	}
}

func (s *Service) invalidateView(ctx context.Context, invoiceID int64) {
	if s.views != nil {
		s.views.Invalidate(ctx, invoiceID)
	}
}
