package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository exposes the single-statement storage calls the engine composes.
// The store offers no multi-statement transactions; the engine compensates
// for partial failures itself.
type Repository interface {
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetAccountByCode(ctx context.Context, companyID int64, code string) (Account, error)
	ListAccounts(ctx context.Context, companyID int64) ([]Account, error)
	// ApplyBalanceDelta adds delta to the account's running balance as a
	// storage-level atomic increment; concurrent postings cannot lose
	// updates.
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error

	InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error)
	InsertJournalLine(ctx context.Context, entryID int64, line PostingLineInput) (int64, error)
	DeleteJournalEntry(ctx context.Context, entryID int64) error
	GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
	GetEntryByTransaction(ctx context.Context, companyID int64, txType TransactionType, txID int64) (JournalEntry, error)
	ListEntriesByTransaction(ctx context.Context, companyID, txID int64) ([]JournalEntry, error)
	ListEntries(ctx context.Context, companyID int64, limit, offset int) ([]JournalEntry, error)
}
