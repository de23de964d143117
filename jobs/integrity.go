package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// IntegrityChecker re-derives the ledger's correctness guarantees from raw
// storage: every posted entry balances, and every account balance equals the
// replay of its lines. Findings are logged, never auto-corrected; a drifted
// balance means a compensation path failed and needs a human.
type IntegrityChecker struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewIntegrityChecker constructs an IntegrityChecker.
func NewIntegrityChecker(db *pgxpool.Pool, logger *slog.Logger) *IntegrityChecker {
	return &IntegrityChecker{db: db, logger: logger}
}

// HandleTask processes TaskLedgerIntegrity tasks.
func (c *IntegrityChecker) HandleTask(ctx context.Context, t *asynq.Task) error {
	payload, err := decodeIntegrityPayload(t)
	if err != nil {
		return err
	}
	unbalanced, err := c.unbalancedEntries(ctx, payload.CompanyID)
	if err != nil {
		return err
	}
	drifted, err := c.driftedBalances(ctx, payload.CompanyID)
	if err != nil {
		return err
	}
	c.logger.Info("ledger integrity check finished",
		slog.Int("unbalanced_entries", len(unbalanced)),
		slog.Int("drifted_accounts", len(drifted)))
	return nil
}

type unbalancedEntry struct {
	EntryID     int64
	EntryNumber int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

func (c *IntegrityChecker) unbalancedEntries(ctx context.Context, companyID int64) ([]unbalancedEntry, error) {
	rows, err := c.db.Query(ctx, `SELECT e.id, e.entry_number,
COALESCE(SUM(l.debit_amount),0)::text, COALESCE(SUM(l.credit_amount),0)::text
FROM journal_entries e
JOIN journal_entry_lines l ON l.entry_id = e.id
WHERE ($1 = 0 OR e.company_id = $1)
GROUP BY e.id, e.entry_number
HAVING COALESCE(SUM(l.debit_amount),0) <> COALESCE(SUM(l.credit_amount),0)`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var found []unbalancedEntry
	for rows.Next() {
		var u unbalancedEntry
		var debit, credit string
		if err := rows.Scan(&u.EntryID, &u.EntryNumber, &debit, &credit); err != nil {
			return nil, err
		}
		if u.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, err
		}
		if u.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, err
		}
		c.logger.Error("unbalanced journal entry detected",
			slog.Int64("entry_id", u.EntryID),
			slog.Int64("entry_number", u.EntryNumber),
			slog.String("debit", u.Debit.StringFixed(2)),
			slog.String("credit", u.Credit.StringFixed(2)))
		found = append(found, u)
	}
	return found, rows.Err()
}

// driftedBalances compares each account's stored running balance against a
// replay of its lines under the account-type sign convention.
func (c *IntegrityChecker) driftedBalances(ctx context.Context, companyID int64) ([]int64, error) {
	rows, err := c.db.Query(ctx, `SELECT a.id, a.code, a.balance::text,
COALESCE(SUM(CASE WHEN a.type IN ('ASSET','EXPENSE')
	THEN l.debit_amount - l.credit_amount
	ELSE l.credit_amount - l.debit_amount END), 0)::text
FROM ledger_accounts a
LEFT JOIN journal_entry_lines l ON l.account_id = a.id
WHERE ($1 = 0 OR a.company_id = $1)
GROUP BY a.id, a.code, a.balance`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var drifted []int64
	for rows.Next() {
		var id int64
		var code, stored, replayed string
		if err := rows.Scan(&id, &code, &stored, &replayed); err != nil {
			return nil, err
		}
		storedD, err := decimal.NewFromString(stored)
		if err != nil {
			return nil, err
		}
		replayedD, err := decimal.NewFromString(replayed)
		if err != nil {
			return nil, err
		}
		if !storedD.Equal(replayedD) {
			c.logger.Error("account balance drift detected",
				slog.Int64("account_id", id),
				slog.String("account_code", code),
				slog.String("stored", storedD.StringFixed(2)),
				slog.String("replayed", replayedD.StringFixed(2)))
			drifted = append(drifted, id)
		}
	}
	return drifted, rows.Err()
}
