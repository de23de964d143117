package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// Engine posts balanced journal entries and maintains running balances.
type Engine struct {
	repo   Repository
	logger *slog.Logger
}

// NewEngine constructs a journal engine.
func NewEngine(repo Repository, logger *slog.Logger) *Engine {
	return &Engine{repo: repo, logger: logger}
}

// Post validates, persists and applies one journal entry.
//
// The sub-steps run strictly in sequence: insert entry, insert lines, apply
// balance deltas. A failure at any step unwinds everything already written,
// so the ledger never holds a partially posted entry.
func (e *Engine) Post(ctx context.Context, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}

	// Resolve accounts up front; an unknown account aborts before any write.
	accounts := make(map[int64]Account, len(in.Lines))
	for _, line := range in.Lines {
		if _, ok := accounts[line.AccountID]; ok {
			continue
		}
		acc, err := e.repo.GetAccount(ctx, line.AccountID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return JournalEntry{}, shared.Validationf("journal: unknown ledger account %d", line.AccountID)
			}
			return JournalEntry{}, shared.Persistencef("resolve account %d: %v", line.AccountID, err)
		}
		accounts[line.AccountID] = acc
	}

	entry, err := e.repo.InsertJournalEntry(ctx, in)
	if err != nil {
		return JournalEntry{}, shared.Persistencef("insert journal entry: %v", err)
	}

	for idx, line := range in.Lines {
		lineID, err := e.repo.InsertJournalLine(ctx, entry.ID, line)
		if err != nil {
			e.compensateEntry(ctx, entry.ID)
			return JournalEntry{}, shared.Persistencef("insert journal line %d: %v", idx+1, err)
		}
		entry.Lines = append(entry.Lines, JournalLine{
			ID:        lineID,
			EntryID:   entry.ID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}

	applied := make([]appliedDelta, 0, len(in.Lines))
	for _, line := range in.Lines {
		delta := accounts[line.AccountID].BalanceDelta(line.Debit, line.Credit)
		if err := e.repo.ApplyBalanceDelta(ctx, line.AccountID, delta); err != nil {
			e.compensateDeltas(ctx, applied)
			e.compensateEntry(ctx, entry.ID)
			return JournalEntry{}, shared.Persistencef("apply balance to account %d: %v", line.AccountID, err)
		}
		applied = append(applied, appliedDelta{accountID: line.AccountID, delta: delta})
	}

	return entry, nil
}

// Unpost removes an entry and reverses its balance effects. It exists for
// compensating rollback only; business reversals go through mirror entries.
// Safe to call twice: a missing entry is treated as already unposted.
func (e *Engine) Unpost(ctx context.Context, entryID int64) error {
	entry, err := e.repo.GetEntryWithLines(ctx, entryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return shared.Persistencef("load entry %d: %v", entryID, err)
	}
	for _, line := range entry.Lines {
		acc, err := e.repo.GetAccount(ctx, line.AccountID)
		if err != nil {
			return shared.Persistencef("resolve account %d: %v", line.AccountID, err)
		}
		delta := acc.BalanceDelta(line.Debit, line.Credit).Neg()
		if err := e.repo.ApplyBalanceDelta(ctx, line.AccountID, delta); err != nil {
			return shared.Persistencef("revert balance on account %d: %v", line.AccountID, err)
		}
	}
	if err := e.repo.DeleteJournalEntry(ctx, entryID); err != nil {
		return shared.Persistencef("delete entry %d: %v", entryID, err)
	}
	return nil
}

// MirrorLines swaps the debit/credit side of every line, producing the
// reversing pattern used by credit notes and edit adjustments.
func MirrorLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, PostingLineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
		})
	}
	return out
}

// EntryByTransaction finds the standing entry posted for a source document.
func (e *Engine) EntryByTransaction(ctx context.Context, companyID int64, txType TransactionType, txID int64) (JournalEntry, error) {
	return e.repo.GetEntryByTransaction(ctx, companyID, txType, txID)
}

// EntriesByTransaction lists every entry a source document produced, oldest
// first, including superseded ones kept for the audit trail.
func (e *Engine) EntriesByTransaction(ctx context.Context, companyID, txID int64) ([]JournalEntry, error) {
	return e.repo.ListEntriesByTransaction(ctx, companyID, txID)
}

// Entry loads one entry with its lines.
func (e *Engine) Entry(ctx context.Context, entryID int64) (JournalEntry, error) {
	return e.repo.GetEntryWithLines(ctx, entryID)
}

// ListEntries pages through posted entries, newest first.
func (e *Engine) ListEntries(ctx context.Context, companyID int64, limit, offset int) ([]JournalEntry, error) {
	return e.repo.ListEntries(ctx, companyID, limit, offset)
}

// Account resolves an account by its well-known code.
func (e *Engine) Account(ctx context.Context, companyID int64, code string) (Account, error) {
	return e.repo.GetAccountByCode(ctx, companyID, code)
}

// AccountByID resolves an account by its id.
func (e *Engine) AccountByID(ctx context.Context, id int64) (Account, error) {
	return e.repo.GetAccount(ctx, id)
}

// ListAccounts returns the company's chart of accounts.
func (e *Engine) ListAccounts(ctx context.Context, companyID int64) ([]Account, error) {
	return e.repo.ListAccounts(ctx, companyID)
}

type appliedDelta struct {
	accountID int64
	delta     decimal.Decimal
}

func (e *Engine) compensateEntry(ctx context.Context, entryID int64) {
	if err := e.repo.DeleteJournalEntry(ctx, entryID); err != nil && e.logger != nil {
		e.logger.Error("journal compensation failed",
			slog.Int64("entry_id", entryID), slog.Any("error", err))
	}
}

func (e *Engine) compensateDeltas(ctx context.Context, applied []appliedDelta) {
	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		if err := e.repo.ApplyBalanceDelta(ctx, d.accountID, d.delta.Neg()); err != nil && e.logger != nil {
			e.logger.Error("balance compensation failed",
				slog.Int64("account_id", d.accountID), slog.Any("error", err))
		}
	}
}
