// Package money keeps order arithmetic in fixed two-decimal precision.
package money

import "github.com/shopspring/decimal"

var tolerance = decimal.New(1, -2)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func Round(f float64) float64 {
	return dec(f).Round(2).InexactFloat64()
}

func Line(price float64, quantity int) float64 {
	return dec(price).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}

func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(dec(v))
	}
	return total.Round(2).InexactFloat64()
}

// Total is subtotal + shipping + tax - discount.
func Total(subtotal, shipping, tax, discount float64) float64 {
	return dec(subtotal).Add(dec(shipping)).Add(dec(tax)).Sub(dec(discount)).Round(2).InexactFloat64()
}

// Equal reports whether a and b differ by no more than one cent.
func Equal(a, b float64) bool {
	return dec(a).Sub(dec(b)).Abs().LessThanOrEqual(tolerance)
}
