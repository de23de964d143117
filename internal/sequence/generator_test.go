package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	last map[string]string
	err  error
}

func (m *memoryRepo) LastDocumentNumber(ctx context.Context, companyID int64, kind Kind, prefix string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.last[prefix], nil
}

func TestNextFirstOfPeriod(t *testing.T) {
	gen := NewGenerator(&memoryRepo{last: map[string]string{}})
	at := time.Date(2025, time.April, 5, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		kind Kind
		want string
	}{
		{KindInvoice, "INV-2025-0001"},
		{KindCreditNote, "CN-2025-0001"},
		{KindSalesOrder, "SO-2025-04-00001"},
	}
	for _, tc := range cases {
		got, err := gen.Next(context.Background(), 1, tc.kind, at)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestNextIncrements(t *testing.T) {
	repo := &memoryRepo{last: map[string]string{
		"INV-2025-": "INV-2025-0042",
	}}
	gen := NewGenerator(repo)
	at := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	got, err := gen.Next(context.Background(), 1, KindInvoice, at)
	require.NoError(t, err)
	require.Equal(t, "INV-2025-0043", got)
}

func TestNextPadOverflow(t *testing.T) {
	repo := &memoryRepo{last: map[string]string{
		"INV-2025-": "INV-2025-9999",
	}}
	gen := NewGenerator(repo)
	at := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	// Beyond the pad width the number simply grows a digit.
	got, err := gen.Next(context.Background(), 1, KindInvoice, at)
	require.NoError(t, err)
	require.Equal(t, "INV-2025-10000", got)
}

func TestNextPeriodRollover(t *testing.T) {
	repo := &memoryRepo{last: map[string]string{
		"INV-2024-":   "INV-2024-0873",
		"SO-2024-12-": "SO-2024-12-00031",
	}}
	gen := NewGenerator(repo)

	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	got, err := gen.Next(context.Background(), 1, KindInvoice, jan)
	require.NoError(t, err)
	require.Equal(t, "INV-2025-0001", got)

	got, err = gen.Next(context.Background(), 1, KindSalesOrder, jan)
	require.NoError(t, err)
	require.Equal(t, "SO-2025-01-00001", got)
}

func TestNextMalformedLastNumber(t *testing.T) {
	repo := &memoryRepo{last: map[string]string{
		"INV-2025-": "INV-2025-abc",
	}}
	gen := NewGenerator(repo)
	at := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	_, err := gen.Next(context.Background(), 1, KindInvoice, at)
	require.Error(t, err)
}

func TestNextRepositoryError(t *testing.T) {
	gen := NewGenerator(&memoryRepo{err: errors.New("connection reset")})
	_, err := gen.Next(context.Background(), 1, KindInvoice, time.Now())
	require.Error(t, err)
}

func TestNextUnknownKind(t *testing.T) {
	gen := NewGenerator(&memoryRepo{last: map[string]string{}})
	_, err := gen.Next(context.Background(), 1, Kind("QUOTE"), time.Now())
	require.Error(t, err)
}
