package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
)

func sale(status domain.SaleStatus, lines ...domain.SaleLine) domain.Sale {
	return domain.Sale{Status: status, Items: lines}
}

func line(code string, qty int) domain.SaleLine {
	return domain.SaleLine{ItemCode: code, Quantity: qty}
}

func TestFormatSequence(t *testing.T) {
	assert.Equal(t, "INV2503140001", FormatSequence("INV250314", 1))
	assert.Equal(t, "INV2503140123", FormatSequence("INV250314", 123))
}

func TestReconcileSaleAddedRemovedResized(t *testing.T) {
	before := sale(domain.SaleStatusPaid, line("A", 3), line("B", 2))
	after := sale(domain.SaleStatusPaid, line("A", 5), line("C", 1))

	got := ReconcileSale(before, after)

	assert.Equal(t, []domain.StockMovement{
		{ItemCode: "A", Delta: -2},
		{ItemCode: "C", Delta: -1},
		{ItemCode: "B", Delta: 2},
	}, got)
}

func TestReconcileSaleMergesDuplicateLines(t *testing.T) {
	before := sale(domain.SaleStatusPaid, line("A", 2), line("A", 2))
	after := sale(domain.SaleStatusPaid, line("A", 4))

	assert.Empty(t, ReconcileSale(before, after))
}

func TestReconcileSaleStatusFlip(t *testing.T) {
	paid := sale(domain.SaleStatusPaid, line("A", 3))
	cancelled := sale(domain.SaleStatusCancelled, line("A", 3))

	assert.Equal(t, []domain.StockMovement{{ItemCode: "A", Delta: 3}}, ReconcileSale(paid, cancelled))
	assert.Equal(t, []domain.StockMovement{{ItemCode: "A", Delta: -3}}, ReconcileSale(cancelled, paid))
	assert.Empty(t, ReconcileSale(cancelled, sale(domain.SaleStatusCancelled, line("B", 9))))
}

func TestSaleLineMovementsKeepsOrder(t *testing.T) {
	got := SaleLineMovements([]domain.SaleLine{line("B", 1), line("A", 2)}, -1)
	assert.Equal(t, []domain.StockMovement{{ItemCode: "B", Delta: -1}, {ItemCode: "A", Delta: -2}}, got)
}

func TestErrorUnwrapsToKind(t *testing.T) {
	err := InsufficientStock("SKU1")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for item: SKU1", err.Error())
	assert.Equal(t, "Insufficient stock for item: SKU1", Message(err))
	assert.Equal(t, "", Message(assert.AnError))
}
