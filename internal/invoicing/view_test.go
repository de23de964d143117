package invoicing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
)

func TestBuildViewListsEveryJournalEntry(t *testing.T) {
	h := newHarness()

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)
	_, err = h.svc.RecordPayment(actorCtx(), inv.ID, RecordPaymentRequest{Amount: d("1000"), Method: "NEFT"})
	require.NoError(t, err)
	_, err = h.svc.RecordPayment(actorCtx(), inv.ID, RecordPaymentRequest{Amount: d("1360")})
	require.NoError(t, err)

	view, err := h.svc.BuildView(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.Len(t, view.Journal, 3, "one sale entry plus both payment entries")

	payments := 0
	for _, entry := range view.Journal {
		if entry.TransactionType == ledger.TransactionPayment {
			payments++
		}
		require.NotEmpty(t, entry.Lines)
		for _, line := range entry.Lines {
			require.NotEmpty(t, line.AccountCode, "entry %d line must carry the account code", entry.ID)
			require.NotEmpty(t, line.AccountName, "entry %d line must carry the account name", entry.ID)
		}
	}
	require.Equal(t, 2, payments)
}

func TestBuildViewKeepsSupersededEntriesAfterEdit(t *testing.T) {
	h := newHarness()

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)
	h.advance(time.Hour)
	_, err = h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.NoError(t, err)

	view, err := h.svc.BuildView(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.Len(t, view.Journal, 3, "original sale, reversal, re-posted sale")

	byType := map[ledger.TransactionType]int{}
	for _, entry := range view.Journal {
		byType[entry.TransactionType]++
	}
	require.Equal(t, 2, byType[ledger.TransactionInvoice])
	require.Equal(t, 1, byType[ledger.TransactionAdjustment])
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"0.5", "₹0.50"},
		{"2360", "₹2,360.00"},
		{"1234567.89", "₹12,34,567.89"},
		{"-2360", "-₹2,360.00"},
		// Beyond float64's exact integer range; must not lose a paisa.
		{"123456789012345.67", "₹12,34,56,78,90,12,345.67"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, formatINR(d(tc.in)), "format %s", tc.in)
	}
}
