// Package tax computes GST splits and invoice totals.
//
// All monetary values are fixed-point decimals. Rounding happens once per
// line; aggregates are sums of already-rounded lines and are never rounded
// again, so line items and invoice totals can never drift apart.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// LineInput describes one cart line prior to tax computation.
//
// InterState selects the regime for the line: intra-state supply splits
// GSTRate evenly into CGST and SGST, inter-state applies the full rate as
// IGST. Mixed carts are legal; the flag is resolved per line by the caller
// from company state vs place of supply.
type LineInput struct {
	ProductID       int64
	Description     string
	Quantity        decimal.Decimal
	UnitRate        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	GSTRate         decimal.Decimal
	InterState      bool
}

// LineTax is the computed tax breakdown for one line.
type LineTax struct {
	ProductID      int64
	Description    string
	Quantity       decimal.Decimal
	UnitRate       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	CGSTRate       decimal.Decimal
	CGSTAmount     decimal.Decimal
	SGSTRate       decimal.Decimal
	SGSTAmount     decimal.Decimal
	IGSTRate       decimal.Decimal
	IGSTAmount     decimal.Decimal
	LineTotal      decimal.Decimal
}

// Input groups everything the calculator needs for one document.
type Input struct {
	Lines            []LineInput
	DiscountAmount   decimal.Decimal
	AdjustmentAmount decimal.Decimal
}

// Result carries per-line breakdowns plus document aggregates.
// TotalAmount == Subtotal - DiscountAmount + GSTAmount + AdjustmentAmount.
type Result struct {
	Lines            []LineTax
	Subtotal         decimal.Decimal
	GSTAmount        decimal.Decimal
	DiscountAmount   decimal.Decimal
	AdjustmentAmount decimal.Decimal
	TotalAmount      decimal.Decimal
}

// Calculate computes the tax breakdown for in. It is a pure function: the
// same input always yields the same result.
func Calculate(in Input) (Result, error) {
	if len(in.Lines) == 0 {
		return Result{}, shared.Validationf("at least one line item is required")
	}

	res := Result{
		Lines:            make([]LineTax, 0, len(in.Lines)),
		Subtotal:         decimal.Zero,
		GSTAmount:        decimal.Zero,
		DiscountAmount:   in.DiscountAmount.Round(2),
		AdjustmentAmount: in.AdjustmentAmount.Round(2),
	}

	for idx, line := range in.Lines {
		lt, err := calculateLine(idx, line)
		if err != nil {
			return Result{}, err
		}
		res.Lines = append(res.Lines, lt)
		res.Subtotal = res.Subtotal.Add(lt.TaxableAmount)
		res.GSTAmount = res.GSTAmount.Add(lt.CGSTAmount).Add(lt.SGSTAmount).Add(lt.IGSTAmount)
	}

	if res.DiscountAmount.GreaterThan(res.Subtotal) {
		return Result{}, shared.Validationf("discount %s exceeds subtotal %s",
			res.DiscountAmount.StringFixed(2), res.Subtotal.StringFixed(2))
	}

	res.TotalAmount = res.Subtotal.Sub(res.DiscountAmount).Add(res.GSTAmount).Add(res.AdjustmentAmount)
	return res, nil
}

func calculateLine(idx int, line LineInput) (LineTax, error) {
	if line.Quantity.Sign() <= 0 {
		return LineTax{}, shared.Validationf("line %d: quantity must be positive", idx+1)
	}
	if line.UnitRate.Sign() < 0 {
		return LineTax{}, shared.Validationf("line %d: unit rate cannot be negative", idx+1)
	}
	if line.GSTRate.Sign() < 0 {
		return LineTax{}, shared.Validationf("line %d: gst rate cannot be negative", idx+1)
	}

	gross := line.Quantity.Mul(line.UnitRate)
	discount := line.DiscountAmount
	if discount.IsZero() && line.DiscountPercent.Sign() > 0 {
		discount = gross.Mul(line.DiscountPercent).Div(hundred)
	}
	discount = discount.Round(2)
	if discount.GreaterThan(gross) {
		return LineTax{}, shared.Validationf("line %d: discount exceeds line amount", idx+1)
	}
	taxable := gross.Sub(discount).Round(2)

	lt := LineTax{
		ProductID:      line.ProductID,
		Description:    line.Description,
		Quantity:       line.Quantity,
		UnitRate:       line.UnitRate,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
	}

	if line.InterState {
		lt.IGSTRate = line.GSTRate
		lt.IGSTAmount = taxable.Mul(line.GSTRate).Div(hundred).Round(2)
	} else {
		half := line.GSTRate.Div(decimal.NewFromInt(2))
		lt.CGSTRate = half
		lt.SGSTRate = half
		lt.CGSTAmount = taxable.Mul(half).Div(hundred).Round(2)
		lt.SGSTAmount = taxable.Mul(half).Div(hundred).Round(2)
	}

	lt.LineTotal = taxable.Add(lt.CGSTAmount).Add(lt.SGSTAmount).Add(lt.IGSTAmount)
	if err := CheckRegimeExclusive(idx, lt.CGSTAmount, lt.SGSTAmount, lt.IGSTAmount); err != nil {
		return LineTax{}, err
	}
	return lt, nil
}

// CheckRegimeExclusive rejects a line that carries both the intra-state
// split and IGST. Exactly one regime may produce tax on any line.
func CheckRegimeExclusive(idx int, cgst, sgst, igst decimal.Decimal) error {
	intra := cgst.Sign() > 0 || sgst.Sign() > 0
	if intra && igst.Sign() > 0 {
		return shared.Validationf("line %d: cannot mix CGST/SGST with IGST", idx+1)
	}
	return nil
}
