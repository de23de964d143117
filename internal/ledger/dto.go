package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// PostingLineInput describes one journal line in a posting request.
type PostingLineInput struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// PostingInput groups fields required to post a journal entry.
type PostingInput struct {
	CompanyID       int64
	EntryDate       time.Time
	Narration       string
	TransactionType TransactionType
	TransactionID   int64
	PostedBy        int64
	Lines           []PostingLineInput
}

// Validate enforces the core correctness guarantee before anything persists:
// well-formed lines and total debits equal to total credits, to the paisa.
// The check applies to manually authored entries and to every entry the
// invoice, COGS and credit-note flows generate.
func (in PostingInput) Validate() error {
	if in.CompanyID == 0 {
		return shared.Validationf("journal: company required")
	}
	if in.TransactionType == "" {
		return shared.Validationf("journal: transaction type required")
	}
	if len(in.Lines) < 2 {
		return shared.Validationf("journal: at least two lines required")
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return shared.Validationf("journal: line %d missing account", idx+1)
		}
		if line.Debit.Sign() < 0 || line.Credit.Sign() < 0 {
			return shared.Validationf("journal: line %d negative amount", idx+1)
		}
		if line.Debit.Sign() > 0 && line.Credit.Sign() > 0 {
			return shared.Validationf("journal: line %d cannot be both debit and credit", idx+1)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return shared.Validationf("journal: line %d has no amount", idx+1)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Round(2).Equal(credit.Round(2)) {
		return shared.Validationf("journal: unbalanced entry, debits %s != credits %s",
			debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}
