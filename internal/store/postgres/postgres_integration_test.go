package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("MINIPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set MINIPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func seedItem(t *testing.T, s *Store, code string, stock int) {
	t.Helper()
	ctx := context.Background()
	_, err := s.CreateItem(ctx, domain.Item{
		Code:      code,
		Name:      "Barang " + code,
		SellPrice: decimal.NewFromInt(1000),
		BuyPrice:  decimal.NewFromInt(800),
		Stock:     stock,
		Active:    true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE code = $1`, code)
	})
}

func cleanupSalePrefix(t *testing.T, s *Store, prefix string) {
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE invoice_code LIKE $1`, prefix+"%")
		_, _ = s.db.ExecContext(ctx, `DELETE FROM invoice_sequences WHERE prefix = $1`, prefix)
	})
}

func testSale(code string, qty int) domain.Sale {
	return domain.Sale{
		TransactionDate: time.Now().UTC(),
		Subtotal:        decimal.NewFromInt(int64(1000 * qty)),
		ItemDiscount:    decimal.Zero,
		DiscountPercent: decimal.Zero,
		DiscountAmount:  decimal.Zero,
		GrandTotal:      decimal.NewFromInt(int64(1000 * qty)),
		PaymentMethod:   domain.PaymentCash,
		Status:          domain.SaleStatusPaid,
		CreatedBy:       "it",
		Items: []domain.SaleLine{{
			ItemCode:        code,
			ItemName:        "Barang " + code,
			Quantity:        qty,
			UnitPrice:       decimal.NewFromInt(1000),
			DiscountPercent: decimal.Zero,
			DiscountAmount:  decimal.Zero,
			LineTotal:       decimal.NewFromInt(int64(1000 * qty)),
		}},
	}
}

func TestSaleLifecycleMovesStock(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	stamp := time.Now().UnixNano()
	code := fmt.Sprintf("IT-SALE-%d", stamp)
	prefix := fmt.Sprintf("ITS%d", stamp%1_000_000)
	cleanupSalePrefix(t, s, prefix)
	seedItem(t, s, code, 10)

	sale, err := s.CreateSale(ctx, testSale(code, 4), prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix+"0001", sale.InvoiceCode)
	require.Len(t, sale.Items, 1)

	item, err := s.GetItem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 6, item.Stock)

	_, err = s.CreateSale(ctx, testSale(code, 7), prefix)
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	next, err := s.CreateSale(ctx, testSale(code, 1), prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix+"0002", next.InvoiceCode, "rolled back create must not leave a gap")

	cancelled, err := s.CancelSale(ctx, sale.InvoiceCode, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCancelled, cancelled.Status)

	_, err = s.CancelSale(ctx, sale.InvoiceCode, time.Now().UTC())
	require.ErrorIs(t, err, store.ErrConflict)

	item, err = s.GetItem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 9, item.Stock)
}

func TestConcurrentSalesNeverOverdraw(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	stamp := time.Now().UnixNano()
	code := fmt.Sprintf("IT-RACE-%d", stamp)
	prefix := fmt.Sprintf("ITR%d", stamp%1_000_000)
	cleanupSalePrefix(t, s, prefix)
	seedItem(t, s, code, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	codes := map[string]bool{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := s.CreateSale(ctx, testSale(code, 1), prefix)
			if err != nil {
				return
			}
			mu.Lock()
			succeeded++
			codes[sale.InvoiceCode] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Len(t, codes, 5)
	item, err := s.GetItem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Stock)
}

func TestPurchaseDeactivateAndRestore(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	stamp := time.Now().UnixNano()
	code := fmt.Sprintf("IT-PUR-%d", stamp)
	number := fmt.Sprintf("IT-PUR-INV-%d", stamp)
	seedItem(t, s, code, 0)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM purchases WHERE invoice_number = $1`, number)
	})

	_, err := s.CreatePurchase(ctx, domain.Purchase{
		InvoiceNumber: number,
		PurchaseDate:  time.Now().UTC(),
		SupplierName:  "PT Integrasi",
		Total:         decimal.NewFromInt(8000),
		CreatedBy:     "it",
		Items: []domain.PurchaseLine{{
			ItemCode: code, ItemName: "Barang " + code, Quantity: 10,
			UnitCost: decimal.NewFromInt(800), LineTotal: decimal.NewFromInt(8000),
		}},
	}, "UNUSED")
	require.NoError(t, err)

	deactivated, err := s.DeactivatePurchase(ctx, number, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	item, err := s.GetItem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Stock)

	restored, err := s.RestorePurchase(ctx, number, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, restored.Active)
	item, err = s.GetItem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Stock)
}

func TestGeneratedPurchaseNumberSkipsHandEnteredOne(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	prefix := fmt.Sprintf("ITP%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM purchases WHERE invoice_number LIKE $1`, prefix+"%")
		_, _ = s.db.ExecContext(ctx, `DELETE FROM invoice_sequences WHERE prefix = $1`, prefix)
	})

	purchase := domain.Purchase{
		PurchaseDate: time.Now().UTC(),
		SupplierName: "PT Integrasi",
		Total:        decimal.Zero,
		CreatedBy:    "it",
	}
	manual := purchase
	manual.InvoiceNumber = store.FormatSequence(prefix, 1)
	_, err := s.CreatePurchase(ctx, manual, prefix)
	require.NoError(t, err)

	first, err := s.CreatePurchase(ctx, purchase, prefix)
	require.NoError(t, err)
	assert.Equal(t, store.FormatSequence(prefix, 2), first.InvoiceNumber)

	second, err := s.CreatePurchase(ctx, purchase, prefix)
	require.NoError(t, err)
	assert.Equal(t, store.FormatSequence(prefix, 3), second.InvoiceNumber)
}
