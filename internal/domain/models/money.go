package models

import (
	"errors"
	"math"
	"math/bits"
)

// errAmountOverflow marks cent arithmetic that left the int64 range.
var errAmountOverflow = errors.New("amount out of range")

// ToCents converts a currency amount to integer cents.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts integer cents back to a currency amount.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// TaxCents computes subtotal*rate/100 rounded half-up to the cent. The rate
// is a percentage with at most two decimals, see ValidTaxRate.
func TaxCents(subtotalCents int64, ratePercent float64) int64 {
	basisPoints := int64(math.Round(ratePercent * 100))
	if subtotalCents <= 0 || basisPoints <= 0 {
		return 0
	}

	hi, lo := bits.Mul64(uint64(subtotalCents), uint64(basisPoints))
	lo, carry := bits.Add64(lo, 5000, 0)
	hi += carry
	if hi >= 10000 {
		return math.MaxInt64
	}
	quo, _ := bits.Div64(hi, lo, 10000)
	if quo > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(quo)
}

// mulCents multiplies a non-negative cent amount by a non-negative factor.
func mulCents(cents, factor int64) (int64, error) {
	if cents < 0 || factor < 0 {
		return 0, errAmountOverflow
	}
	hi, lo := bits.Mul64(uint64(cents), uint64(factor))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, errAmountOverflow
	}
	return int64(lo), nil
}

// addCents adds two non-negative cent amounts.
func addCents(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, errAmountOverflow
	}
	return a + b, nil
}

// Totals holds the money fields derived from a set of order lines.
type Totals struct {
	Subtotal    float64
	TaxRate     float64
	TaxAmount   float64
	TotalAmount float64
}

// ComputeTotals re-derives subtotal, tax and total from lines.
func ComputeTotals(lines []OrderLine, ratePercent float64) Totals {
	subtotal := sumLineCents(lines)
	tax := TaxCents(subtotal, ratePercent)
	return Totals{
		Subtotal:    FromCents(subtotal),
		TaxRate:     ratePercent,
		TaxAmount:   FromCents(tax),
		TotalAmount: FromCents(subtotal + tax),
	}
}

func sumLineCents(lines []OrderLine) int64 {
	total, err := checkedLineCents(lines)
	if err != nil {
		return math.MaxInt64
	}
	return total
}

func checkedLineCents(lines []OrderLine) (int64, error) {
	var total int64
	for _, line := range lines {
		var err error
		if total, err = addCents(total, ToCents(line.Amount)); err != nil {
			return 0, err
		}
	}
	return total, nil
}
