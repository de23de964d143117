package auditlog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

type memoryRepo struct {
	entries []Entry
}

func (r *memoryRepo) Insert(ctx context.Context, entry Entry) (Entry, error) {
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *memoryRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.InvoiceID == invoiceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestAppendAndTrail(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Append(ctx, 7, 42, ChangeCreated, map[string]any{"document_number": "INV-2025-0001"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.EventID)

	edited, err := svc.Append(ctx, 7, 42, ChangeEdited, map[string]any{"old": "2360.00", "new": "472.00"})
	require.NoError(t, err)
	require.NotEqual(t, created.EventID, edited.EventID)

	_, err = svc.Append(ctx, 9, 42, ChangeCredited, nil)
	require.NoError(t, err)

	trail, err := svc.Trail(ctx, 7)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	require.Equal(t, ChangeCreated, trail[0].ChangeType)
	require.Equal(t, ChangeEdited, trail[1].ChangeType)
}

func TestAppendValidation(t *testing.T) {
	svc := NewService(&memoryRepo{})

	_, err := svc.Append(context.Background(), 0, 42, ChangeCreated, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Append(context.Background(), 7, 42, ChangeType("deleted"), nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}
