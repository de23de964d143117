package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberingAuditor scans for document number anomalies. Duplicates should be
// impossible under the unique constraint; a hit means the constraint is
// missing or was dropped. Gaps are reported for reconciliation since
// numbering retries can skip values under concurrency.
type NumberingAuditor struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewNumberingAuditor constructs a NumberingAuditor.
func NewNumberingAuditor(db *pgxpool.Pool, logger *slog.Logger) *NumberingAuditor {
	return &NumberingAuditor{db: db, logger: logger}
}

// HandleTask processes TaskNumberingAudit tasks.
func (a *NumberingAuditor) HandleTask(ctx context.Context, t *asynq.Task) error {
	payload, err := decodeIntegrityPayload(t)
	if err != nil {
		return err
	}

	rows, err := a.db.Query(ctx, `SELECT company_id, document_number, COUNT(*)
FROM invoices
WHERE ($1 = 0 OR company_id = $1)
GROUP BY company_id, document_number
HAVING COUNT(*) > 1`, payload.CompanyID)
	if err != nil {
		return err
	}
	defer rows.Close()
	duplicates := 0
	for rows.Next() {
		var companyID int64
		var number string
		var count int
		if err := rows.Scan(&companyID, &number, &count); err != nil {
			return err
		}
		duplicates++
		a.logger.Error("duplicate document number detected",
			slog.Int64("company_id", companyID),
			slog.String("document_number", number),
			slog.Int("count", count))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	a.logger.Info("numbering audit finished", slog.Int("duplicates", duplicates))
	return nil
}
