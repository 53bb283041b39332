package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/events"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/pricing"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

// CreatePurchase records goods received and adds every line to stock. A blank
// invoice number is generated from the PUR day sequence.
func (s *Service) CreatePurchase(ctx context.Context, req domain.CreatePurchaseRequest) (purchase domain.Purchase, err error) {
	ctx, span := s.startSpan(ctx, "purchase.create", attribute.Int("purchase.lines", len(req.Items)))
	defer func() { finishSpan(span, err) }()

	supplier := strings.TrimSpace(req.SupplierName)
	if supplier == "" {
		return domain.Purchase{}, store.Invalid("Supplier name is required")
	}
	if len(req.Items) == 0 {
		return domain.Purchase{}, store.Invalid("Items are required")
	}

	codes := make([]string, 0, len(req.Items))
	for i := range req.Items {
		in := &req.Items[i]
		in.ItemCode = normalizeCode(in.ItemCode)
		if in.ItemCode == "" {
			return domain.Purchase{}, store.Invalid("Item code is required")
		}
		if in.Quantity <= 0 {
			return domain.Purchase{}, store.Invalid("Item quantity must be greater than 0")
		}
		if in.UnitCost == nil || in.UnitCost.IsNegative() {
			return domain.Purchase{}, store.Invalid("Item cost is required")
		}
		cost := pricing.Round(*in.UnitCost)
		in.UnitCost = &cost
		codes = append(codes, in.ItemCode)
	}

	items, err := s.repo.GetItemsByCodes(ctx, codes)
	if err != nil {
		return domain.Purchase{}, err
	}

	draft := domain.Purchase{
		InvoiceNumber: normalizeCode(req.InvoiceNumber),
		SupplierName:  supplier,
		Total:         decimal.Zero,
		CreatedBy:     actorOrSystem(ctx).Username,
		Items:         make([]domain.PurchaseLine, 0, len(req.Items)),
	}
	if req.PurchaseDate != nil {
		draft.PurchaseDate = req.PurchaseDate.UTC()
	} else {
		draft.PurchaseDate = s.now().UTC()
	}
	for _, in := range req.Items {
		item, ok := items[in.ItemCode]
		if !ok {
			return domain.Purchase{}, store.ItemNotFound(in.ItemCode)
		}
		lineTotal := pricing.PurchaseLineTotal(*in.UnitCost, in.Quantity)
		draft.Total = draft.Total.Add(lineTotal)
		draft.Items = append(draft.Items, domain.PurchaseLine{
			ItemCode:  item.Code,
			ItemName:  item.Name,
			Quantity:  in.Quantity,
			UnitCost:  *in.UnitCost,
			LineTotal: lineTotal,
		})
	}

	created, err := s.repo.CreatePurchase(ctx, draft, s.dayPrefix(purchaseInvoicePrefix, s.now()))
	if err != nil {
		return domain.Purchase{}, err
	}
	span.SetAttributes(attribute.String("purchase.invoice_number", created.InvoiceNumber))

	s.logAudit(ctx, "purchase_create", "purchase", created.InvoiceNumber, map[string]any{
		"supplier": created.SupplierName,
		"total":    created.Total.String(),
		"lines":    len(created.Items),
	})
	s.publish(ctx, events.PurchaseCreated, created.InvoiceNumber, created)
	return *created, nil
}

func (s *Service) GetPurchase(ctx context.Context, invoiceNumber string) (domain.Purchase, error) {
	purchase, err := s.repo.GetPurchase(ctx, normalizeCode(invoiceNumber))
	if err != nil {
		return domain.Purchase{}, err
	}
	return *purchase, nil
}

func (s *Service) ListPurchases(ctx context.Context, includeInactive bool, limit int) ([]domain.Purchase, error) {
	return s.repo.ListPurchases(ctx, includeInactive, clampLimit(limit))
}

// DeactivatePurchase soft-deletes a purchase and takes its quantities back out
// of stock. It fails without changes if any item no longer has enough.
func (s *Service) DeactivatePurchase(ctx context.Context, invoiceNumber string) (purchase domain.Purchase, err error) {
	invoiceNumber = normalizeCode(invoiceNumber)
	ctx, span := s.startSpan(ctx, "purchase.deactivate", attribute.String("purchase.invoice_number", invoiceNumber))
	defer func() { finishSpan(span, err) }()

	if invoiceNumber == "" {
		return domain.Purchase{}, store.Invalid("Invoice number is required")
	}
	deactivated, err := s.repo.DeactivatePurchase(ctx, invoiceNumber, s.now().UTC())
	if err != nil {
		return domain.Purchase{}, err
	}

	s.logAudit(ctx, "purchase_deactivate", "purchase", deactivated.InvoiceNumber, map[string]any{"lines": len(deactivated.Items)})
	s.publish(ctx, events.PurchaseDeactivated, deactivated.InvoiceNumber, deactivated)
	return *deactivated, nil
}

func (s *Service) RestorePurchase(ctx context.Context, invoiceNumber string) (purchase domain.Purchase, err error) {
	invoiceNumber = normalizeCode(invoiceNumber)
	ctx, span := s.startSpan(ctx, "purchase.restore", attribute.String("purchase.invoice_number", invoiceNumber))
	defer func() { finishSpan(span, err) }()

	if invoiceNumber == "" {
		return domain.Purchase{}, store.Invalid("Invoice number is required")
	}
	restored, err := s.repo.RestorePurchase(ctx, invoiceNumber, s.now().UTC())
	if err != nil {
		return domain.Purchase{}, err
	}

	s.logAudit(ctx, "purchase_restore", "purchase", restored.InvoiceNumber, map[string]any{"lines": len(restored.Items)})
	s.publish(ctx, events.PurchaseRestored, restored.InvoiceNumber, restored)
	return *restored, nil
}
