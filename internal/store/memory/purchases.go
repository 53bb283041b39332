package memory

import (
	"context"
	"time"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func (s *Store) CreatePurchase(_ context.Context, purchase domain.Purchase, invoicePrefix string) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.InvoiceNumber != "" {
		if _, exists := s.purchases[purchase.InvoiceNumber]; exists {
			return nil, store.Conflict("Purchase invoice already exists")
		}
	}
	if err := s.applyMovementsLocked(store.PurchaseLineMovements(purchase.Items, 1)); err != nil {
		return nil, err
	}
	if purchase.InvoiceNumber == "" {
		purchase.InvoiceNumber = s.nextFreePurchaseNumberLocked(invoicePrefix)
	}

	for i := range purchase.Items {
		purchase.Items[i].LineNo = i + 1
	}
	now := time.Now().UTC()
	purchase.Active = true
	purchase.CreatedAt = now
	purchase.UpdatedAt = now

	stored := clonePurchase(&purchase)
	s.purchases[purchase.InvoiceNumber] = stored
	s.purchOrder = append(s.purchOrder, purchase.InvoiceNumber)
	return clonePurchase(stored), nil
}

// nextFreePurchaseNumberLocked skips numbers already taken by a manually
// entered invoice.
func (s *Store) nextFreePurchaseNumberLocked(prefix string) string {
	for {
		number := store.FormatSequence(prefix, s.nextSequenceLocked(prefix))
		if _, exists := s.purchases[number]; !exists {
			return number
		}
	}
}

func (s *Store) GetPurchase(_ context.Context, invoiceNumber string) (*domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchase, ok := s.purchases[invoiceNumber]
	if !ok {
		return nil, store.NotFound("Purchase not found")
	}
	return clonePurchase(purchase), nil
}

func (s *Store) ListPurchases(_ context.Context, includeInactive bool, limit int) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Purchase, 0, limit)
	for i := len(s.purchOrder) - 1; i >= 0 && len(out) < limit; i-- {
		purchase := s.purchases[s.purchOrder[i]]
		if !includeInactive && !purchase.Active {
			continue
		}
		out = append(out, *clonePurchase(purchase))
	}
	return out, nil
}

func (s *Store) DeactivatePurchase(_ context.Context, invoiceNumber string, at time.Time) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.purchases[invoiceNumber]
	if !ok {
		return nil, store.NotFound("Purchase not found")
	}
	if !purchase.Active {
		return nil, store.Conflict("Purchase is already inactive")
	}
	if err := s.applyMovementsLocked(store.PurchaseLineMovements(purchase.Items, -1)); err != nil {
		return nil, err
	}

	purchase.Active = false
	purchase.DeactivatedAt = &at
	purchase.UpdatedAt = at
	return clonePurchase(purchase), nil
}

func (s *Store) RestorePurchase(_ context.Context, invoiceNumber string, at time.Time) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.purchases[invoiceNumber]
	if !ok {
		return nil, store.NotFound("Purchase not found")
	}
	if purchase.Active {
		return nil, store.Conflict("Purchase is already active")
	}
	if err := s.applyMovementsLocked(store.PurchaseLineMovements(purchase.Items, 1)); err != nil {
		return nil, err
	}

	purchase.Active = true
	purchase.DeactivatedAt = nil
	purchase.UpdatedAt = at
	return clonePurchase(purchase), nil
}
