package invoicing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/auditlog"
	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
	"github.com/ledgerline-erp/ledgerline-erp/internal/sequence"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// creditNote reverses a finalized or edited invoice in full.
//
// The note is itself an invoice row: CN-numbered, every monetary field
// negated, self-settling (total paid equals its negative total so nothing
// is ever due on it). The ledger reversal mirrors the original sale entry;
// the original invoice flips to CREDITED only after the mirror has posted,
// so a failed reversal leaves the original untouched.
func (s *Service) creditNote(ctx context.Context, originalID int64, reason string) (*Invoice, error) {
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(ctx, actor, shared.ActionCredit, shared.ResourceInvoice) {
		return nil, shared.ErrForbidden
	}

	orig, err := s.getWithItems(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if orig.IsCreditNote {
		return nil, shared.BusinessRulef("credit notes cannot be credited")
	}
	if !CanTransition(orig.Status, StatusCredited) {
		return nil, shared.BusinessRulef("invoice %s is already credited", orig.DocumentNumber)
	}

	now := s.now()
	cn, err := s.insertNumbered(ctx, func(number string) Invoice {
		negTotal := orig.TotalAmount.Neg()
		return Invoice{
			CompanyID:        orig.CompanyID,
			DocumentNumber:   number,
			CustomerID:       orig.CustomerID,
			InvoiceDate:      now,
			DueDate:          now,
			Subtotal:         orig.Subtotal.Neg(),
			GSTAmount:        orig.GSTAmount.Neg(),
			DiscountAmount:   orig.DiscountAmount.Neg(),
			AdjustmentAmount: orig.AdjustmentAmount.Neg(),
			TotalAmount:      negTotal,
			Status:           StatusFinalized,
			PaymentStatus:    PaymentPaid,
			TotalPaid:        negTotal,
			BalanceDue:       decimal.Zero,
			IsCreditNote:     true,
			CreditNoteFor:    &orig.ID,
			Notes:            reason,
			FinalizedAt:      now,
			FinalizedBy:      actor.ID,
		}
	}, sequence.KindCreditNote, orig.CompanyID, now)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceItem, 0, len(orig.Items))
	for _, item := range orig.Items {
		items = append(items, negateItem(item))
	}
	cn.Items, err = s.insertNegated(ctx, cn.ID, items)
	if err != nil {
		s.compensateInvoice(ctx, cn.ID)
		return nil, err
	}

	// Mirror of the sale pattern, built from the original's absolute
	// amounts: credit receivables, debit sales and GST outputs.
	lines, err := s.postingLines(ctx, orig.CompanyID, amountsOf(orig), true)
	if err != nil {
		s.compensateInvoice(ctx, cn.ID)
		return nil, err
	}
	entry, err := s.journal.Post(ctx, ledger.PostingInput{
		CompanyID:       orig.CompanyID,
		EntryDate:       now,
		Narration:       fmt.Sprintf("Credit Note %s against %s", cn.DocumentNumber, orig.DocumentNumber),
		TransactionType: ledger.TransactionCreditNote,
		TransactionID:   cn.ID,
		PostedBy:        actor.ID,
		Lines:           lines,
	})
	if err != nil {
		s.compensateInvoice(ctx, cn.ID)
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, orig.ID, StatusCredited); err != nil {
		if uerr := s.journal.Unpost(ctx, entry.ID); uerr != nil {
			s.logger.Error("credit note journal compensation failed",
				slog.Int64("entry_id", entry.ID), slog.Any("error", uerr))
		}
		s.compensateInvoice(ctx, cn.ID)
		return nil, shared.Persistencef("mark invoice credited: %v", err)
	}

	if _, err := s.audit.Append(ctx, orig.ID, actor.ID, auditlog.ChangeCredited, map[string]any{
		"credit_note_id":     cn.ID,
		"credit_note_number": cn.DocumentNumber,
		"reason":             reason,
		"journal_entry_id":   entry.ID,
	}); err != nil {
		s.logger.Warn("audit append failed; credit note remains valid",
			slog.Int64("invoice_id", orig.ID), slog.Any("error", err))
	}
	s.invalidateView(ctx, orig.ID)
	return &cn, nil
}

func (s *Service) insertNegated(ctx context.Context, invoiceID int64, items []InvoiceItem) ([]InvoiceItem, error) {
	out := make([]InvoiceItem, 0, len(items))
	for idx, item := range items {
		item.ID = 0
		item.InvoiceID = invoiceID
		inserted, err := s.repo.InsertItem(ctx, item)
		if err != nil {
			return nil, shared.Persistencef("insert credit note item %d: %v", idx+1, err)
		}
		out = append(out, inserted)
	}
	return out, nil
}

// negateItem flips the quantity and every monetary field of a line; rates
// stay positive so the note reads like the original sold in reverse.
func negateItem(item InvoiceItem) InvoiceItem {
	item.Quantity = item.Quantity.Neg()
	item.DiscountAmount = item.DiscountAmount.Neg()
	item.TaxableAmount = item.TaxableAmount.Neg()
	item.CGSTAmount = item.CGSTAmount.Neg()
	item.SGSTAmount = item.SGSTAmount.Neg()
	item.IGSTAmount = item.IGSTAmount.Neg()
	item.LineTotal = item.LineTotal.Neg()
	return item
}
