package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// Directory is the pgx-backed implementation of both collaborator lookups.
type Directory struct {
	db *pgxpool.Pool
}

// NewDirectory constructs a Directory.
func NewDirectory(db *pgxpool.Pool) *Directory {
	return &Directory{db: db}
}

func (d *Directory) GetCustomer(ctx context.Context, id int64) (CustomerSummary, error) {
	var c CustomerSummary
	err := d.db.QueryRow(ctx, `SELECT id, name, COALESCE(state, ''), COALESCE(gstin, '') FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.State, &c.GSTIN)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CustomerSummary{}, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
		}
		return CustomerSummary{}, err
	}
	return c, nil
}

func (d *Directory) GetDispatch(ctx context.Context, id int64) (DispatchSummary, error) {
	var s DispatchSummary
	var cost string
	err := d.db.QueryRow(ctx, `SELECT d.id, d.reference, COALESCE(w.name, ''), d.cost_amount::text
FROM dispatches d LEFT JOIN warehouses w ON w.id = d.warehouse_id WHERE d.id = $1`, id).
		Scan(&s.ID, &s.Reference, &s.Warehouse, &cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DispatchSummary{}, fmt.Errorf("dispatch %d: %w", id, shared.ErrNotFound)
		}
		return DispatchSummary{}, err
	}
	if s.CostAmount, err = decimal.NewFromString(cost); err != nil {
		return DispatchSummary{}, fmt.Errorf("masterdata: parse dispatch cost %q: %w", cost, err)
	}
	return s, nil
}
