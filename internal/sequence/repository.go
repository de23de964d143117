package sequence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// LastDocumentNumber scans the owning table for the latest number in the
// period. Invoices and credit notes share the invoices table; the prefix
// keeps the two counters apart.
func (r *repository) LastDocumentNumber(ctx context.Context, companyID int64, kind Kind, prefix string) (string, error) {
	table := "invoices"
	if kind == KindSalesOrder {
		table = "sales_orders"
	}
	var number string
	err := r.db.QueryRow(ctx, `SELECT document_number FROM `+table+`
WHERE company_id = $1 AND document_number LIKE $2 || '%'
ORDER BY created_at DESC, id DESC LIMIT 1`, companyID, prefix).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return number, nil
}
