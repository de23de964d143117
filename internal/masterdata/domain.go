// Package masterdata exposes read-only views of external collaborators.
//
// Warehouse, dispatch and customer management are owned elsewhere; the
// invoicing core only consumes summaries from them: a customer's place of
// supply to pick the tax regime, a dispatch's cost to post COGS.
package masterdata

import (
	"context"

	"github.com/shopspring/decimal"
)

// CustomerSummary is the slice of customer data invoicing needs.
type CustomerSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
	GSTIN string `json:"gstin,omitempty"`
}

// DispatchSummary references a goods dispatch and its inventory cost.
type DispatchSummary struct {
	ID         int64           `json:"id"`
	Reference  string          `json:"reference"`
	Warehouse  string          `json:"warehouse,omitempty"`
	CostAmount decimal.Decimal `json:"cost_amount"`
}

// CustomerDirectory resolves customer summaries.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id int64) (CustomerSummary, error)
}

// DispatchDirectory resolves dispatch summaries.
type DispatchDirectory interface {
	GetDispatch(ctx context.Context, id int64) (DispatchSummary, error)
}
