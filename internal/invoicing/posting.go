package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// postingAmounts carries the per-account splits of one invoice posting.
type postingAmounts struct {
	total decimal.Decimal
	sales decimal.Decimal
	cgst  decimal.Decimal
	sgst  decimal.Decimal
	igst  decimal.Decimal
}

func amountsOf(inv Invoice) postingAmounts {
	amt := postingAmounts{
		total: inv.TotalAmount,
		sales: inv.Subtotal.Sub(inv.DiscountAmount).Add(inv.AdjustmentAmount),
	}
	for _, item := range inv.Items {
		amt.cgst = amt.cgst.Add(item.CGSTAmount)
		amt.sgst = amt.sgst.Add(item.SGSTAmount)
		amt.igst = amt.igst.Add(item.IGSTAmount)
	}
	return amt
}

// invoicePosting builds the standard sale entry: debit receivables for the
// grand total, credit sales for the goods value, credit each GST output
// account for the tax collected. Zero legs are dropped.
func (s *Service) invoicePosting(ctx context.Context, inv Invoice, customerName string) (ledger.PostingInput, error) {
	amt := amountsOf(inv)
	lines, err := s.postingLines(ctx, inv.CompanyID, amt, false)
	if err != nil {
		return ledger.PostingInput{}, err
	}
	return ledger.PostingInput{
		CompanyID:       inv.CompanyID,
		EntryDate:       inv.InvoiceDate,
		Narration:       fmt.Sprintf("Invoice %s to %s", inv.DocumentNumber, customerName),
		TransactionType: ledger.TransactionInvoice,
		TransactionID:   inv.ID,
		PostedBy:        inv.FinalizedBy,
		Lines:           lines,
	}, nil
}

// postingLines resolves the well-known accounts and assembles the legs.
// mirrored swaps debit and credit, producing the credit-note pattern from
// the same absolute amounts.
func (s *Service) postingLines(ctx context.Context, companyID int64, amt postingAmounts, mirrored bool) ([]ledger.PostingLineInput, error) {
	type leg struct {
		code   string
		debit  decimal.Decimal
		credit decimal.Decimal
	}
	legs := []leg{
		{code: ledger.CodeReceivables, debit: amt.total},
		{code: ledger.CodeSales, credit: amt.sales},
		{code: ledger.CodeCGSTOutput, credit: amt.cgst},
		{code: ledger.CodeSGSTOutput, credit: amt.sgst},
		{code: ledger.CodeIGSTOutput, credit: amt.igst},
	}
	lines := make([]ledger.PostingLineInput, 0, len(legs))
	for _, l := range legs {
		if l.debit.IsZero() && l.credit.IsZero() {
			continue
		}
		acc, err := s.account(ctx, companyID, l.code)
		if err != nil {
			return nil, err
		}
		line := ledger.PostingLineInput{AccountID: acc.ID, Debit: l.debit, Credit: l.credit}
		if mirrored {
			line.Debit, line.Credit = line.Credit, line.Debit
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// postCOGS records the cost side of a dispatched sale: debit COGS, credit
// inventory at the dispatch's cost. Callers treat failure as non-fatal.
func (s *Service) postCOGS(ctx context.Context, inv Invoice, actorID int64) error {
	if inv.DispatchID == nil {
		return nil
	}
	dispatch, err := s.dispatches.GetDispatch(ctx, *inv.DispatchID)
	if err != nil {
		return fmt.Errorf("resolve dispatch %d: %w", *inv.DispatchID, err)
	}
	if dispatch.CostAmount.Sign() <= 0 {
		return nil
	}
	cogs, err := s.account(ctx, inv.CompanyID, ledger.CodeCOGS)
	if err != nil {
		return err
	}
	inventory, err := s.account(ctx, inv.CompanyID, ledger.CodeInventory)
	if err != nil {
		return err
	}
	_, err = s.journal.Post(ctx, ledger.PostingInput{
		CompanyID:       inv.CompanyID,
		EntryDate:       inv.InvoiceDate,
		Narration:       fmt.Sprintf("COGS for %s (dispatch %s)", inv.DocumentNumber, dispatch.Reference),
		TransactionType: ledger.TransactionCOGS,
		TransactionID:   inv.ID,
		PostedBy:        actorID,
		Lines: []ledger.PostingLineInput{
			{AccountID: cogs.ID, Debit: dispatch.CostAmount},
			{AccountID: inventory.ID, Credit: dispatch.CostAmount},
		},
	})
	return err
}

// repostInvoiceEntry trues the ledger up after an edit: the standing sale
// entry is reversed with a mirror adjustment, then a fresh entry is posted
// for the new totals. If the fresh posting fails the mirror is unwound so
// the ledger keeps reflecting the pre-edit invoice.
func (s *Service) repostInvoiceEntry(ctx context.Context, old, updated Invoice, customerName string) error {
	standing, err := s.journal.EntryByTransaction(ctx, old.CompanyID, ledger.TransactionInvoice, old.ID)
	var mirrorID int64
	switch {
	case err == nil:
		mirror, err := s.journal.Post(ctx, ledger.PostingInput{
			CompanyID:       old.CompanyID,
			EntryDate:       updated.InvoiceDate,
			Narration:       fmt.Sprintf("Reversal of entry %d for edit of %s", standing.EntryNumber, old.DocumentNumber),
			TransactionType: ledger.TransactionAdjustment,
			TransactionID:   old.ID,
			PostedBy:        deref(updated.EditedBy),
			Lines:           ledger.MirrorLines(standing.Lines),
		})
		if err != nil {
			return err
		}
		mirrorID = mirror.ID
	case errors.Is(err, shared.ErrNotFound):
		// No standing entry to reverse; post fresh only.
	default:
		return shared.Persistencef("load standing entry: %v", err)
	}

	posting, err := s.invoicePosting(ctx, updated, customerName)
	if err == nil {
		posting.PostedBy = deref(updated.EditedBy)
		_, err = s.journal.Post(ctx, posting)
	}
	if err != nil {
		if mirrorID != 0 {
			if uerr := s.journal.Unpost(ctx, mirrorID); uerr != nil {
				s.logger.Error("edit mirror compensation failed",
					slog.Int64("entry_id", mirrorID), slog.Any("error", uerr))
			}
		}
		return err
	}
	return nil
}

func (s *Service) account(ctx context.Context, companyID int64, code string) (ledger.Account, error) {
	acc, err := s.journal.Account(ctx, companyID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ledger.Account{}, shared.Validationf("ledger account %s not configured for company %d", code, companyID)
		}
		return ledger.Account{}, shared.Persistencef("resolve account %s: %v", code, err)
	}
	return acc, nil
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
