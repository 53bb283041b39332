package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func newStoreWithItems(t *testing.T, stock map[string]int) *Store {
	t.Helper()
	s := New()
	for code, qty := range stock {
		_, err := s.CreateItem(context.Background(), domain.Item{
			Code:      code,
			Name:      "Item " + code,
			SellPrice: decimal.NewFromInt(1000),
			Stock:     qty,
			Active:    true,
		})
		require.NoError(t, err)
	}
	return s
}

func stockOf(t *testing.T, s *Store, code string) int {
	t.Helper()
	item, err := s.GetItem(context.Background(), code)
	require.NoError(t, err)
	return item.Stock
}

func paidSale(lines ...domain.SaleLine) domain.Sale {
	return domain.Sale{
		TransactionDate: time.Now().UTC(),
		PaymentMethod:   domain.PaymentCash,
		Status:          domain.SaleStatusPaid,
		Items:           lines,
	}
}

func TestCreateSaleAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 10, "B": 5})

	_, err := s.CreateSale(ctx, paidSale(
		domain.SaleLine{ItemCode: "A", Quantity: 3},
		domain.SaleLine{ItemCode: "B", Quantity: 6},
	), "INV250314")

	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.EqualError(t, err, "Insufficient stock for item: B")
	assert.Equal(t, 10, stockOf(t, s, "A"))
	assert.Equal(t, 5, stockOf(t, s, "B"))

	sales, err := s.ListSales(ctx, domain.SaleFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, sales)

	created, err := s.CreateSale(ctx, paidSale(domain.SaleLine{ItemCode: "A", Quantity: 1}), "INV250314")
	require.NoError(t, err)
	assert.Equal(t, "INV2503140001", created.InvoiceCode, "failed create must not consume a sequence value")
}

func TestCreateSaleDuplicateLinesSeeEarlierDecrement(t *testing.T) {
	s := newStoreWithItems(t, map[string]int{"A": 5})

	_, err := s.CreateSale(context.Background(), paidSale(
		domain.SaleLine{ItemCode: "A", Quantity: 3},
		domain.SaleLine{ItemCode: "A", Quantity: 3},
	), "INV250314")

	assert.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 5, stockOf(t, s, "A"))
}

func TestSequencesArePerPrefix(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 10})

	codes := make([]string, 0, 4)
	for _, prefix := range []string{"INV250314", "INV250314", "INV250315", "INV250314"} {
		sale, err := s.CreateSale(ctx, paidSale(domain.SaleLine{ItemCode: "A", Quantity: 1}), prefix)
		require.NoError(t, err)
		codes = append(codes, sale.InvoiceCode)
	}

	assert.Equal(t, []string{"INV2503140001", "INV2503140002", "INV2503150001", "INV2503140003"}, codes)
}

func TestCancelAndRestoreSale(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 10})

	sale, err := s.CreateSale(ctx, paidSale(domain.SaleLine{ItemCode: "A", Quantity: 4}), "INV250314")
	require.NoError(t, err)
	assert.Equal(t, 6, stockOf(t, s, "A"))

	cancelled, err := s.CancelSale(ctx, sale.InvoiceCode, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 10, stockOf(t, s, "A"))

	_, err = s.CancelSale(ctx, sale.InvoiceCode, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 10, stockOf(t, s, "A"))

	_, err = s.DecreaseStock(ctx, "A", 8)
	require.NoError(t, err)
	_, err = s.RestoreSale(ctx, sale.InvoiceCode, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	_, err = s.IncreaseStock(ctx, "A", 2)
	require.NoError(t, err)
	restored, err := s.RestoreSale(ctx, sale.InvoiceCode, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, restored.Paid())
	assert.Nil(t, restored.CancelledAt)
	assert.Equal(t, 0, stockOf(t, s, "A"))
}

func TestUpdateSaleReconcilesStock(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 10, "B": 10, "C": 10})

	sale, err := s.CreateSale(ctx, paidSale(
		domain.SaleLine{ItemCode: "A", Quantity: 3},
		domain.SaleLine{ItemCode: "B", Quantity: 2},
	), "INV250314")
	require.NoError(t, err)

	edited := *sale
	edited.Items = []domain.SaleLine{
		{ItemCode: "A", Quantity: 1},
		{ItemCode: "C", Quantity: 4},
	}
	updated, err := s.UpdateSale(ctx, edited)
	require.NoError(t, err)

	assert.Equal(t, sale.InvoiceCode, updated.InvoiceCode)
	assert.Len(t, updated.Items, 2)
	assert.Equal(t, 2, updated.Items[1].LineNo)
	assert.Equal(t, 9, stockOf(t, s, "A"))
	assert.Equal(t, 10, stockOf(t, s, "B"))
	assert.Equal(t, 6, stockOf(t, s, "C"))
}

func TestUpdateSaleRejectsOverdrawWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 5, "B": 1})

	sale, err := s.CreateSale(ctx, paidSale(domain.SaleLine{ItemCode: "A", Quantity: 2}), "INV250314")
	require.NoError(t, err)

	edited := *sale
	edited.Items = []domain.SaleLine{{ItemCode: "A", Quantity: 1}, {ItemCode: "B", Quantity: 2}}
	_, err = s.UpdateSale(ctx, edited)
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	assert.Equal(t, 3, stockOf(t, s, "A"))
	assert.Equal(t, 1, stockOf(t, s, "B"))
	reloaded, err := s.GetSale(ctx, sale.InvoiceCode)
	require.NoError(t, err)
	assert.Len(t, reloaded.Items, 1)
}

func TestPurchaseLifecycleMovesStock(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 0})

	purchase, err := s.CreatePurchase(ctx, domain.Purchase{
		SupplierName: "CV Sumber Rejeki",
		Items:        []domain.PurchaseLine{{ItemCode: "A", Quantity: 12}},
	}, "PUR250314")
	require.NoError(t, err)
	assert.Equal(t, "PUR2503140001", purchase.InvoiceNumber)
	assert.True(t, purchase.Active)
	assert.Equal(t, 12, stockOf(t, s, "A"))

	_, err = s.DecreaseStock(ctx, "A", 5)
	require.NoError(t, err)
	_, err = s.DeactivatePurchase(ctx, purchase.InvoiceNumber, time.Now().UTC())
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 7, stockOf(t, s, "A"))

	_, err = s.IncreaseStock(ctx, "A", 5)
	require.NoError(t, err)
	deactivated, err := s.DeactivatePurchase(ctx, purchase.InvoiceNumber, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	assert.Equal(t, 0, stockOf(t, s, "A"))

	_, err = s.DeactivatePurchase(ctx, purchase.InvoiceNumber, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrConflict)

	active, err := s.ListPurchases(ctx, false, 10)
	require.NoError(t, err)
	assert.Empty(t, active)

	restored, err := s.RestorePurchase(ctx, purchase.InvoiceNumber, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, restored.Active)
	assert.Equal(t, 12, stockOf(t, s, "A"))
}

func TestCreatePurchaseRejectsDuplicateInvoice(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 0})

	p := domain.Purchase{InvoiceNumber: "SUP-77", SupplierName: "PT Grosir", Items: []domain.PurchaseLine{{ItemCode: "A", Quantity: 1}}}
	_, err := s.CreatePurchase(ctx, p, "PUR250314")
	require.NoError(t, err)

	_, err = s.CreatePurchase(ctx, p, "PUR250314")
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 1, stockOf(t, s, "A"))
}

func TestDecreaseStockUnknownItem(t *testing.T) {
	s := New()
	_, err := s.DecreaseStock(context.Background(), "NOPE", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.EqualError(t, err, "Item not found: NOPE")
}

func TestReturnedSaleIsACopy(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 10})

	sale, err := s.CreateSale(ctx, paidSale(domain.SaleLine{ItemCode: "A", Quantity: 1}), "INV250314")
	require.NoError(t, err)
	sale.Items[0].Quantity = 99

	reloaded, err := s.GetSale(ctx, sale.InvoiceCode)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Items[0].Quantity)
}

func TestListSalesOrdersByTransactionDate(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithItems(t, map[string]int{"A": 10})
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{base, base.Add(-48 * time.Hour), base.Add(2 * time.Hour)} {
		sale := paidSale(domain.SaleLine{ItemCode: "A", Quantity: 1})
		sale.TransactionDate = at
		_, err := s.CreateSale(ctx, sale, "INV250314")
		require.NoError(t, err)
	}

	sales, err := s.ListSales(ctx, domain.SaleFilter{Limit: 10})
	require.NoError(t, err)
	codes := make([]string, 0, len(sales))
	for _, sale := range sales {
		codes = append(codes, sale.InvoiceCode)
	}
	assert.Equal(t, []string{"INV2503140003", "INV2503140001", "INV2503140002"}, codes)

	limited, err := s.ListSales(ctx, domain.SaleFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "INV2503140003", limited[0].InvoiceCode)
}

func TestNewSeededUsesGivenPasswords(t *testing.T) {
	s := NewSeeded("admin-secret", "kasir-secret")

	for username, password := range map[string]string{"admin": "admin-secret", "cashier": "kasir-secret"} {
		user, err := s.GetUser(context.Background(), username)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)), username)
	}
}
