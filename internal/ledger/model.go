// Package ledger owns the chart of accounts and the journal posting engine.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Well-known account codes the posting shapes resolve against.
const (
	CodeCash        = "1000"
	CodeReceivables = "1200"
	CodeInventory   = "1400"
	CodeCGSTOutput  = "2310"
	CodeSGSTOutput  = "2320"
	CodeIGSTOutput  = "2330"
	CodeSales       = "4000"
	CodeCOGS        = "5000"
)

// Account models a chart-of-accounts node with a running balance.
type Account struct {
	ID        int64
	CompanyID int64
	Code      string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BalanceDelta converts a debit/credit pair into the signed movement of the
// account's running balance. Debits increase asset and expense accounts;
// credits increase liability, income and equity accounts.
func (a Account) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	switch a.Type {
	case AccountTypeAsset, AccountTypeExpense:
		return debit.Sub(credit)
	default:
		return credit.Sub(debit)
	}
}

// TransactionType tags the accounting event a journal entry came from.
type TransactionType string

const (
	TransactionInvoice    TransactionType = "INVOICE"
	TransactionCOGS       TransactionType = "COGS"
	TransactionCreditNote TransactionType = "CREDIT_NOTE"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
	TransactionPayment    TransactionType = "PAYMENT"
	TransactionManual     TransactionType = "MANUAL"
)

// JournalEntry is one posted accounting event.
type JournalEntry struct {
	ID              int64
	CompanyID       int64
	EntryNumber     int64
	EntryDate       time.Time
	Narration       string
	TransactionType TransactionType
	TransactionID   int64
	PostedBy        int64
	CreatedAt       time.Time
	Lines           []JournalLine
}

// JournalLine carries a debit or credit against one account.
// Exactly one of Debit/Credit is non-zero.
type JournalLine struct {
	ID        int64
	EntryID   int64
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	CreatedAt time.Time
}
