// Package pricing holds the sale arithmetic. All amounts are rounded to two
// decimal places, half away from zero.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

const places = 2

type LineAmounts struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

type Totals struct {
	Subtotal       decimal.Decimal
	ItemDiscount   decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// ValidPercent reports whether pct lies in [0, 100].
func ValidPercent(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}

// Round brings a price, cost or percentage to the stored precision. Inputs
// are rounded before any arithmetic so stored rows satisfy their own totals.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(places)
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(places)
}

func ComputeLine(unitPrice decimal.Decimal, quantity int, discountPercent decimal.Decimal) LineAmounts {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(places)
	discount := percentOf(gross, discountPercent)
	return LineAmounts{
		Gross:    gross,
		Discount: discount,
		Total:    gross.Sub(discount),
	}
}

// ComputeTotals applies the transaction discount to what is left after line
// discounts. GrandTotal = Subtotal - ItemDiscount - DiscountAmount, never below zero.
func ComputeTotals(lines []LineAmounts, discountPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	itemDiscount := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Gross)
		itemDiscount = itemDiscount.Add(l.Discount)
	}
	base := subtotal.Sub(itemDiscount)
	discountAmount := percentOf(base, discountPercent)
	grand := base.Sub(discountAmount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}
	return Totals{
		Subtotal:       subtotal,
		ItemDiscount:   itemDiscount,
		DiscountAmount: discountAmount,
		GrandTotal:     grand,
	}
}

// PurchaseLineTotal is cost x quantity.
func PurchaseLineTotal(unitCost decimal.Decimal, quantity int) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(int64(quantity))).Round(places)
}
