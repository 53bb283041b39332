package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func (s *Store) CreateSale(_ context.Context, sale domain.Sale, invoicePrefix string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyMovementsLocked(store.SaleLineMovements(sale.Items, -1)); err != nil {
		return nil, err
	}

	sale.InvoiceCode = store.FormatSequence(invoicePrefix, s.nextSequenceLocked(invoicePrefix))
	for i := range sale.Items {
		sale.Items[i].LineNo = i + 1
	}
	now := time.Now().UTC()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.UpdatedAt = now

	stored := cloneSale(&sale)
	s.sales[sale.InvoiceCode] = stored
	return cloneSale(stored), nil
}

func (s *Store) GetSale(_ context.Context, invoiceCode string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[invoiceCode]
	if !ok {
		return nil, store.NotFound("Sale not found")
	}
	return cloneSale(sale), nil
}

// ListSales returns the newest sales first by transaction date, then by
// invoice code.
func (s *Store) ListSales(_ context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !filter.From.IsZero() && sale.TransactionDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !sale.TransactionDate.Before(filter.To) {
			continue
		}
		if filter.Status != nil && sale.Status != *filter.Status {
			continue
		}
		matched = append(matched, sale)
	}
	slices.SortFunc(matched, func(a, b *domain.Sale) int {
		if c := b.TransactionDate.Compare(a.TransactionDate); c != 0 {
			return c
		}
		return strings.Compare(b.InvoiceCode, a.InvoiceCode)
	})

	out := make([]domain.Sale, 0, len(matched))
	for _, sale := range matched {
		if len(out) >= filter.Limit {
			break
		}
		out = append(out, *cloneSale(sale))
	}
	return out, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sales[sale.InvoiceCode]
	if !ok {
		return nil, store.NotFound("Sale not found")
	}
	if err := s.applyMovementsLocked(store.ReconcileSale(*existing, sale)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range sale.Items {
		sale.Items[i].LineNo = i + 1
	}
	sale.CreatedBy = existing.CreatedBy
	sale.CreatedAt = existing.CreatedAt
	sale.UpdatedAt = now
	switch {
	case existing.Paid() && !sale.Paid():
		sale.CancelledAt = &now
	case sale.Paid():
		sale.CancelledAt = nil
	default:
		sale.CancelledAt = existing.CancelledAt
	}

	stored := cloneSale(&sale)
	s.sales[sale.InvoiceCode] = stored
	return cloneSale(stored), nil
}

func (s *Store) CancelSale(_ context.Context, invoiceCode string, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[invoiceCode]
	if !ok {
		return nil, store.NotFound("Sale not found")
	}
	if !sale.Paid() {
		return nil, store.Conflict("Sale is already cancelled")
	}
	if err := s.applyMovementsLocked(store.SaleLineMovements(sale.Items, 1)); err != nil {
		return nil, err
	}

	sale.Status = domain.SaleStatusCancelled
	sale.CancelledAt = &at
	sale.UpdatedAt = at
	return cloneSale(sale), nil
}

func (s *Store) RestoreSale(_ context.Context, invoiceCode string, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[invoiceCode]
	if !ok {
		return nil, store.NotFound("Sale not found")
	}
	if sale.Paid() {
		return nil, store.Conflict("Sale is not cancelled")
	}
	if err := s.applyMovementsLocked(store.SaleLineMovements(sale.Items, -1)); err != nil {
		return nil, err
	}

	sale.Status = domain.SaleStatusPaid
	sale.CancelledAt = nil
	sale.UpdatedAt = at
	return cloneSale(sale), nil
}
