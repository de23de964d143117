package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
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

const accountColumns = `id, company_id, code, name, type, balance::text, is_active, created_at, updated_at`

func (r *repository) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *repository) GetAccountByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE company_id = $1 AND code = $2`, companyID, code)
	return scanAccount(row)
}

func (r *repository) ListAccounts(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE company_id = $1 ORDER BY code ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *repository) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	cmd, err := r.db.Exec(ctx, `UPDATE ledger_accounts SET balance = balance + $2::numeric, updated_at = NOW() WHERE id = $1`,
		accountID, delta.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error) {
	entry := JournalEntry{
		CompanyID:       in.CompanyID,
		EntryDate:       in.EntryDate,
		Narration:       in.Narration,
		TransactionType: in.TransactionType,
		TransactionID:   in.TransactionID,
		PostedBy:        in.PostedBy,
	}
	err := r.db.QueryRow(ctx, `INSERT INTO journal_entries (company_id, entry_date, narration, transaction_type, transaction_id, posted_by)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, entry_number, created_at`,
		in.CompanyID, in.EntryDate, in.Narration, in.TransactionType, nullInt(in.TransactionID), nullInt(in.PostedBy)).
		Scan(&entry.ID, &entry.EntryNumber, &entry.CreatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *repository) InsertJournalLine(ctx context.Context, entryID int64, line PostingLineInput) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO journal_entry_lines (entry_id, account_id, debit_amount, credit_amount)
VALUES ($1,$2,$3::numeric,$4::numeric) RETURNING id`,
		entryID, line.AccountID, line.Debit.StringFixed(2), line.Credit.StringFixed(2)).Scan(&id)
	return id, err
}

func (r *repository) DeleteJournalEntry(ctx context.Context, entryID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1`, entryID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM journal_entries WHERE id = $1`, entryID)
	return err
}

const entryColumns = `id, company_id, entry_number, entry_date, narration, transaction_type, COALESCE(transaction_id, 0), COALESCE(posted_by, 0), created_at`

func (r *repository) GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = $1`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		return JournalEntry{}, err
	}
	return r.attachLines(ctx, entry)
}

func (r *repository) GetEntryByTransaction(ctx context.Context, companyID int64, txType TransactionType, txID int64) (JournalEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id = $1 AND transaction_type = $2 AND transaction_id = $3
ORDER BY id DESC LIMIT 1`, companyID, txType, txID)
	entry, err := scanEntry(row)
	if err != nil {
		return JournalEntry{}, err
	}
	return r.attachLines(ctx, entry)
}

func (r *repository) ListEntriesByTransaction(ctx context.Context, companyID, txID int64) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id = $1 AND transaction_id = $2 ORDER BY id ASC`, companyID, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i], err = r.attachLines(ctx, entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *repository) ListEntries(ctx context.Context, companyID int64, limit, offset int) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id = $1 ORDER BY entry_number DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) attachLines(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, entry_id, account_id, debit_amount::text, credit_amount::text, created_at
FROM journal_entry_lines WHERE entry_id = $1 ORDER BY id ASC`, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		var debit, credit string
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &debit, &credit, &line.CreatedAt); err != nil {
			return JournalEntry{}, err
		}
		if line.Debit, err = decimal.NewFromString(debit); err != nil {
			return JournalEntry{}, fmt.Errorf("ledger: parse debit %q: %w", debit, err)
		}
		if line.Credit, err = decimal.NewFromString(credit); err != nil {
			return JournalEntry{}, fmt.Errorf("ledger: parse credit %q: %w", credit, err)
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var acc Account
	var balance string
	err := row.Scan(&acc.ID, &acc.CompanyID, &acc.Code, &acc.Name, &acc.Type, &balance, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	if acc.Balance, err = decimal.NewFromString(balance); err != nil {
		return Account{}, fmt.Errorf("ledger: parse balance %q: %w", balance, err)
	}
	return acc, nil
}

func scanEntry(row rowScanner) (JournalEntry, error) {
	var entry JournalEntry
	err := row.Scan(&entry.ID, &entry.CompanyID, &entry.EntryNumber, &entry.EntryDate, &entry.Narration,
		&entry.TransactionType, &entry.TransactionID, &entry.PostedBy, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
