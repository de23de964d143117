package invoicing

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
	"github.com/ledgerline-erp/ledgerline-erp/internal/masterdata"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// InvoiceView is the denormalized read model served to clients: the document,
// its counterparties and every journal entry it produced.
type InvoiceView struct {
	Invoice      Invoice                     `json:"invoice"`
	Customer     masterdata.CustomerSummary  `json:"customer"`
	Dispatch     *masterdata.DispatchSummary `json:"dispatch,omitempty"`
	Journal      []JournalEntryView          `json:"journal"`
	DisplayTotal string                      `json:"display_total"`
	DisplayDue   string                      `json:"display_due"`
}

// JournalEntryView is one posted entry with its lines carrying resolved
// account names.
type JournalEntryView struct {
	ID              int64                  `json:"id"`
	EntryNumber     int64                  `json:"entry_number"`
	EntryDate       time.Time              `json:"entry_date"`
	Narration       string                 `json:"narration"`
	TransactionType ledger.TransactionType `json:"transaction_type"`
	Lines           []JournalLineView      `json:"lines"`
}

// JournalLineView is one debit or credit leg with its account identity.
type JournalLineView struct {
	AccountID   int64           `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// BuildView assembles the read model from storage. Every entry the document
// produced is listed, superseded ones included, so the view reads like the
// document's full ledger history. Callers wanting caching go through the
// ViewCache instead.
func (s *Service) BuildView(ctx context.Context, id int64) (*InvoiceView, error) {
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(ctx, actor, shared.ActionRead, shared.ResourceInvoice) {
		return nil, shared.ErrForbidden
	}

	inv, err := s.getWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetCustomer(ctx, inv.CustomerID)
	if err != nil {
		return nil, err
	}

	view := &InvoiceView{
		Invoice:      inv,
		Customer:     customer,
		DisplayTotal: formatINR(inv.TotalAmount),
		DisplayDue:   formatINR(inv.BalanceDue),
	}
	if inv.DispatchID != nil {
		dispatch, err := s.dispatches.GetDispatch(ctx, *inv.DispatchID)
		if err == nil {
			view.Dispatch = &dispatch
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	entries, err := s.journal.EntriesByTransaction(ctx, inv.CompanyID, inv.ID)
	if err != nil {
		return nil, shared.Persistencef("load journal entries: %v", err)
	}
	accounts := map[int64]ledger.Account{}
	for _, entry := range entries {
		ev := JournalEntryView{
			ID:              entry.ID,
			EntryNumber:     entry.EntryNumber,
			EntryDate:       entry.EntryDate,
			Narration:       entry.Narration,
			TransactionType: entry.TransactionType,
		}
		for _, line := range entry.Lines {
			acc, ok := accounts[line.AccountID]
			if !ok {
				acc, err = s.journal.AccountByID(ctx, line.AccountID)
				if err != nil && !errors.Is(err, shared.ErrNotFound) {
					return nil, shared.Persistencef("resolve account %d: %v", line.AccountID, err)
				}
				accounts[line.AccountID] = acc
			}
			ev.Lines = append(ev.Lines, JournalLineView{
				AccountID:   line.AccountID,
				AccountCode: acc.Code,
				AccountName: acc.Name,
				Debit:       line.Debit,
				Credit:      line.Credit,
			})
		}
		view.Journal = append(view.Journal, ev)
	}
	return view, nil
}

var inr = message.NewPrinter(language.MustParse("en-IN"))

// formatINR renders an amount with Indian digit grouping (12,34,567.89).
// The rupee part is grouped as an exact integer; no float conversion.
func formatINR(d decimal.Decimal) string {
	abs := d.Abs().StringFixed(2)
	dot := strings.IndexByte(abs, '.')
	out := "₹" + abs
	if whole, err := strconv.ParseInt(abs[:dot], 10, 64); err == nil {
		out = inr.Sprintf("₹%v.%s", number.Decimal(whole), abs[dot+1:])
	}
	if d.Sign() < 0 {
		out = "-" + out
	}
	return out
}
