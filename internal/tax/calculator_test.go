package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCalculateMixedCart(t *testing.T) {
	res, err := Calculate(Input{
		Lines: []LineInput{
			{ProductID: 1, Quantity: d("10"), UnitRate: d("100"), GSTRate: d("18"), InterState: false},
			{ProductID: 2, Quantity: d("5"), UnitRate: d("200"), GSTRate: d("18"), InterState: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)

	intra := res.Lines[0]
	require.True(t, intra.TaxableAmount.Equal(d("1000")), "taxable %s", intra.TaxableAmount)
	require.True(t, intra.CGSTRate.Equal(d("9")))
	require.True(t, intra.SGSTRate.Equal(d("9")))
	require.True(t, intra.CGSTAmount.Equal(d("90")))
	require.True(t, intra.SGSTAmount.Equal(d("90")))
	require.True(t, intra.IGSTAmount.IsZero())
	require.True(t, intra.LineTotal.Equal(d("1180")))

	inter := res.Lines[1]
	require.True(t, inter.TaxableAmount.Equal(d("1000")))
	require.True(t, inter.IGSTRate.Equal(d("18")))
	require.True(t, inter.IGSTAmount.Equal(d("180")))
	require.True(t, inter.CGSTAmount.IsZero())
	require.True(t, inter.SGSTAmount.IsZero())

	require.True(t, res.Subtotal.Equal(d("2000")))
	require.True(t, res.GSTAmount.Equal(d("360")))
	require.True(t, res.TotalAmount.Equal(d("2360")))
}

func TestCalculateDiscounts(t *testing.T) {
	t.Run("percent discount", func(t *testing.T) {
		res, err := Calculate(Input{
			Lines: []LineInput{
				{ProductID: 1, Quantity: d("1"), UnitRate: d("1000"), DiscountPercent: d("10"), GSTRate: d("18")},
			},
		})
		require.NoError(t, err)
		require.True(t, res.Lines[0].DiscountAmount.Equal(d("100")))
		require.True(t, res.Lines[0].TaxableAmount.Equal(d("900")))
		require.True(t, res.Lines[0].CGSTAmount.Equal(d("81")))
	})

	t.Run("explicit amount wins over percent", func(t *testing.T) {
		res, err := Calculate(Input{
			Lines: []LineInput{
				{ProductID: 1, Quantity: d("1"), UnitRate: d("1000"), DiscountPercent: d("10"), DiscountAmount: d("50"), GSTRate: d("18")},
			},
		})
		require.NoError(t, err)
		require.True(t, res.Lines[0].DiscountAmount.Equal(d("50")))
		require.True(t, res.Lines[0].TaxableAmount.Equal(d("950")))
	})

	t.Run("discount above line amount rejected", func(t *testing.T) {
		_, err := Calculate(Input{
			Lines: []LineInput{
				{ProductID: 1, Quantity: d("1"), UnitRate: d("100"), DiscountAmount: d("150"), GSTRate: d("18")},
			},
		})
		require.Error(t, err)
	})

	t.Run("document discount above subtotal rejected", func(t *testing.T) {
		_, err := Calculate(Input{
			Lines: []LineInput{
				{ProductID: 1, Quantity: d("1"), UnitRate: d("100"), GSTRate: d("18")},
			},
			DiscountAmount: d("150"),
		})
		require.ErrorContains(t, err, "exceeds subtotal")
	})
}

func TestCalculateOverallAdjustments(t *testing.T) {
	res, err := Calculate(Input{
		Lines: []LineInput{
			{ProductID: 1, Quantity: d("2"), UnitRate: d("500"), GSTRate: d("18")},
		},
		DiscountAmount:   d("100"),
		AdjustmentAmount: d("-0.50"),
	})
	require.NoError(t, err)
	// 1000 - 100 + 180 - 0.50
	require.True(t, res.TotalAmount.Equal(d("1079.50")), "total %s", res.TotalAmount)
}

func TestCalculateRoundsPerLineNotOnAggregates(t *testing.T) {
	// Each line taxes to 1.67 (rounded); the document sums rounded lines.
	lines := make([]LineInput, 3)
	for i := range lines {
		lines[i] = LineInput{ProductID: int64(i + 1), Quantity: d("1"), UnitRate: d("9.29"), GSTRate: d("18"), InterState: true}
	}
	res, err := Calculate(Input{Lines: lines})
	require.NoError(t, err)
	for _, line := range res.Lines {
		require.True(t, line.IGSTAmount.Equal(d("1.67")), "line igst %s", line.IGSTAmount)
	}
	require.True(t, res.GSTAmount.Equal(d("5.01")), "gst %s", res.GSTAmount)
}

func TestCalculateValidation(t *testing.T) {
	cases := []struct {
		name string
		line LineInput
	}{
		{"zero quantity", LineInput{Quantity: d("0"), UnitRate: d("10"), GSTRate: d("18")}},
		{"negative quantity", LineInput{Quantity: d("-1"), UnitRate: d("10"), GSTRate: d("18")}},
		{"negative rate", LineInput{Quantity: d("1"), UnitRate: d("-10"), GSTRate: d("18")}},
		{"negative gst", LineInput{Quantity: d("1"), UnitRate: d("10"), GSTRate: d("-18")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calculate(Input{Lines: []LineInput{tc.line}})
			require.Error(t, err)
		})
	}

	t.Run("empty cart", func(t *testing.T) {
		_, err := Calculate(Input{})
		require.Error(t, err)
	})
}

func TestCalculateDeterministic(t *testing.T) {
	in := Input{
		Lines: []LineInput{
			{ProductID: 1, Quantity: d("3"), UnitRate: d("33.33"), GSTRate: d("12")},
			{ProductID: 2, Quantity: d("7"), UnitRate: d("14.99"), GSTRate: d("5"), InterState: true},
		},
		DiscountAmount: d("10"),
	}
	first, err := Calculate(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Calculate(in)
		require.NoError(t, err)
		require.True(t, first.TotalAmount.Equal(again.TotalAmount))
		require.True(t, first.GSTAmount.Equal(again.GSTAmount))
	}
}

func TestCheckRegimeExclusive(t *testing.T) {
	require.NoError(t, CheckRegimeExclusive(0, d("9"), d("9"), d("0")))
	require.NoError(t, CheckRegimeExclusive(0, d("0"), d("0"), d("18")))
	require.Error(t, CheckRegimeExclusive(0, d("9"), d("9"), d("18")))
}
