package store

import (
	"fmt"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
)

// FormatSequence renders an allocated sequence value under its day prefix,
// e.g. INV250314 + 7 -> INV2503140007.
func FormatSequence(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// SaleLineMovements returns one movement per line, in line order. sign is -1 to
// take stock out (sale or restore) and +1 to put it back (cancel).
func SaleLineMovements(lines []domain.SaleLine, sign int) []domain.StockMovement {
	out := make([]domain.StockMovement, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.StockMovement{ItemCode: line.ItemCode, Delta: sign * line.Quantity})
	}
	return out
}

func PurchaseLineMovements(lines []domain.PurchaseLine, sign int) []domain.StockMovement {
	out := make([]domain.StockMovement, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.StockMovement{ItemCode: line.ItemCode, Delta: sign * line.Quantity})
	}
	return out
}

// ReconcileSale computes the stock movements that turn the effect of before
// into the effect of after. A paid sale holds its line quantities out of stock
// and a cancelled one holds nothing, so a status flip inside an edit behaves
// like cancel or restore. Codes are ordered by first appearance in after, then
// in before. Codes whose net quantity did not change are omitted.
func ReconcileSale(before domain.Sale, after domain.Sale) []domain.StockMovement {
	held := func(sale domain.Sale) map[string]int {
		qty := make(map[string]int)
		if !sale.Paid() {
			return qty
		}
		for _, line := range sale.Items {
			qty[line.ItemCode] += line.Quantity
		}
		return qty
	}
	oldQty := held(before)
	newQty := held(after)

	order := make([]string, 0, len(after.Items)+len(before.Items))
	seen := make(map[string]bool)
	for _, lines := range [][]domain.SaleLine{after.Items, before.Items} {
		for _, line := range lines {
			if !seen[line.ItemCode] {
				seen[line.ItemCode] = true
				order = append(order, line.ItemCode)
			}
		}
	}

	out := make([]domain.StockMovement, 0, len(order))
	for _, code := range order {
		delta := oldQty[code] - newQty[code]
		if delta != 0 {
			out = append(out, domain.StockMovement{ItemCode: code, Delta: delta})
		}
	}
	return out
}
