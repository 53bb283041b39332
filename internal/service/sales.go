package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/events"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/pricing"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

// CreateSale validates the cart, recomputes every total from the lines and
// hands the sale to the store, which writes it and takes stock out atomically.
func (s *Service) CreateSale(ctx context.Context, req domain.CreateSaleRequest) (sale domain.Sale, err error) {
	ctx, span := s.startSpan(ctx, "sale.create", attribute.Int("sale.lines", len(req.Items)))
	defer func() { finishSpan(span, err) }()

	draft, err := s.buildSale(ctx, req)
	if err != nil {
		return domain.Sale{}, err
	}
	draft.Status = domain.SaleStatusPaid
	draft.CreatedBy = actorOrSystem(ctx).Username

	created, err := s.repo.CreateSale(ctx, draft, s.dayPrefix(saleInvoicePrefix, s.now()))
	if err != nil {
		return domain.Sale{}, err
	}
	span.SetAttributes(attribute.String("sale.invoice_code", created.InvoiceCode))

	s.logAudit(ctx, "sale_create", "sale", created.InvoiceCode, map[string]any{
		"grand_total":    created.GrandTotal.String(),
		"payment_method": created.PaymentMethod,
		"lines":          len(created.Items),
	})
	s.publish(ctx, events.SaleCreated, created.InvoiceCode, created)
	return *created, nil
}

// UpdateSale replaces the header and the full item list. Omitting status or
// transaction date keeps the stored values. Stock is reconciled by the store
// from the before and after quantities.
func (s *Service) UpdateSale(ctx context.Context, invoiceCode string, req domain.UpdateSaleRequest) (sale domain.Sale, err error) {
	invoiceCode = normalizeCode(invoiceCode)
	ctx, span := s.startSpan(ctx, "sale.update", attribute.String("sale.invoice_code", invoiceCode))
	defer func() { finishSpan(span, err) }()

	if invoiceCode == "" {
		return domain.Sale{}, store.Invalid("Invoice code is required")
	}
	existing, err := s.repo.GetSale(ctx, invoiceCode)
	if err != nil {
		return domain.Sale{}, err
	}

	draft, err := s.buildSale(ctx, req.CreateSaleRequest)
	if err != nil {
		return domain.Sale{}, err
	}
	draft.InvoiceCode = existing.InvoiceCode
	draft.Status = existing.Status
	if req.Status != nil {
		if !req.Status.Valid() {
			return domain.Sale{}, store.Invalid("Invalid sale status")
		}
		draft.Status = *req.Status
	}
	if req.TransactionDate == nil {
		draft.TransactionDate = existing.TransactionDate
	}

	updated, err := s.repo.UpdateSale(ctx, draft)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_update", "sale", updated.InvoiceCode, map[string]any{
		"status_before": existing.Status.String(),
		"status_after":  updated.Status.String(),
		"total_before":  existing.GrandTotal.String(),
		"total_after":   updated.GrandTotal.String(),
	})
	s.publish(ctx, events.SaleUpdated, updated.InvoiceCode, updated)
	return *updated, nil
}

// CancelSale moves a paid sale to cancelled and puts every line back in stock.
func (s *Service) CancelSale(ctx context.Context, invoiceCode string) (sale domain.Sale, err error) {
	invoiceCode = normalizeCode(invoiceCode)
	ctx, span := s.startSpan(ctx, "sale.cancel", attribute.String("sale.invoice_code", invoiceCode))
	defer func() { finishSpan(span, err) }()

	if invoiceCode == "" {
		return domain.Sale{}, store.Invalid("Invoice code is required")
	}
	cancelled, err := s.repo.CancelSale(ctx, invoiceCode, s.now().UTC())
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_cancel", "sale", cancelled.InvoiceCode, map[string]any{"lines": len(cancelled.Items)})
	s.publish(ctx, events.SaleCancelled, cancelled.InvoiceCode, cancelled)
	return *cancelled, nil
}

// RestoreSale moves a cancelled sale back to paid. Every line is taken out of
// stock again under the same sufficiency check as a new sale.
func (s *Service) RestoreSale(ctx context.Context, invoiceCode string) (sale domain.Sale, err error) {
	invoiceCode = normalizeCode(invoiceCode)
	ctx, span := s.startSpan(ctx, "sale.restore", attribute.String("sale.invoice_code", invoiceCode))
	defer func() { finishSpan(span, err) }()

	if invoiceCode == "" {
		return domain.Sale{}, store.Invalid("Invoice code is required")
	}
	restored, err := s.repo.RestoreSale(ctx, invoiceCode, s.now().UTC())
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_restore", "sale", restored.InvoiceCode, map[string]any{"lines": len(restored.Items)})
	s.publish(ctx, events.SaleRestored, restored.InvoiceCode, restored)
	return *restored, nil
}

func (s *Service) GetSale(ctx context.Context, invoiceCode string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, normalizeCode(invoiceCode))
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return nil, store.Invalid("from must be before to")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, store.Invalid("Invalid sale status")
	}
	filter.Limit = clampLimit(filter.Limit)
	return s.repo.ListSales(ctx, filter)
}

// buildSale runs the cart checks in order and returns a sale with lines and
// totals filled in. The first failing check wins.
func (s *Service) buildSale(ctx context.Context, req domain.CreateSaleRequest) (domain.Sale, error) {
	if len(req.Items) == 0 {
		return domain.Sale{}, store.Invalid("Items are required")
	}
	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	if method == "" {
		return domain.Sale{}, store.Invalid("Payment method is required")
	}
	if !method.Valid() {
		return domain.Sale{}, store.Invalid("Invalid payment method")
	}
	if !pricing.ValidPercent(req.DiscountPercent) {
		return domain.Sale{}, store.Invalid("Discount must be between 0 and 100")
	}
	req.DiscountPercent = pricing.Round(req.DiscountPercent)

	codes := make([]string, 0, len(req.Items))
	for i := range req.Items {
		in := &req.Items[i]
		in.ItemCode = normalizeCode(in.ItemCode)
		if in.ItemCode == "" {
			return domain.Sale{}, store.Invalid("Item code is required")
		}
		if in.Quantity <= 0 {
			return domain.Sale{}, store.Invalid("Item quantity must be greater than 0")
		}
		if in.UnitPrice == nil || in.UnitPrice.IsNegative() {
			return domain.Sale{}, store.Invalid("Item price is required")
		}
		if !pricing.ValidPercent(in.DiscountPercent) {
			return domain.Sale{}, store.Invalid("Item discount must be between 0 and 100")
		}
		price := pricing.Round(*in.UnitPrice)
		in.UnitPrice = &price
		in.DiscountPercent = pricing.Round(in.DiscountPercent)
		codes = append(codes, in.ItemCode)
	}

	items, err := s.repo.GetItemsByCodes(ctx, codes)
	if err != nil {
		return domain.Sale{}, err
	}

	lines := make([]domain.SaleLine, 0, len(req.Items))
	amounts := make([]pricing.LineAmounts, 0, len(req.Items))
	for _, in := range req.Items {
		item, ok := items[in.ItemCode]
		if !ok {
			return domain.Sale{}, store.ItemNotFound(in.ItemCode)
		}
		if !item.Active {
			return domain.Sale{}, store.Invalid("Item is inactive: " + in.ItemCode)
		}
		amount := pricing.ComputeLine(*in.UnitPrice, in.Quantity, in.DiscountPercent)
		amounts = append(amounts, amount)
		lines = append(lines, domain.SaleLine{
			ItemCode:        item.Code,
			ItemName:        item.Name,
			Quantity:        in.Quantity,
			UnitPrice:       *in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			DiscountAmount:  amount.Discount,
			LineTotal:       amount.Total,
		})
	}
	totals := pricing.ComputeTotals(amounts, req.DiscountPercent)
	s.compareTotalsHint(req, totals)

	sale := domain.Sale{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		MemberCode:      normalizeCode(req.MemberCode),
		Subtotal:        totals.Subtotal,
		ItemDiscount:    totals.ItemDiscount,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		GrandTotal:      totals.GrandTotal,
		PaymentMethod:   method,
		Items:           lines,
	}
	if req.TransactionDate != nil {
		sale.TransactionDate = req.TransactionDate.UTC()
	} else {
		sale.TransactionDate = s.now().UTC()
	}

	if sale.MemberCode != "" {
		member, err := s.lookupMember(ctx, sale.MemberCode)
		if err != nil {
			return domain.Sale{}, err
		}
		if sale.CustomerName == "" {
			sale.CustomerName = member.Name
		}
	}
	return sale, nil
}

// compareTotalsHint logs client-side totals that disagree with the recomputed
// ones. Only the recomputed values are ever stored.
func (s *Service) compareTotalsHint(req domain.CreateSaleRequest, totals pricing.Totals) {
	hints := []struct {
		field    string
		client   *decimal.Decimal
		computed decimal.Decimal
	}{
		{"subtotal", req.Subtotal, totals.Subtotal},
		{"discount_amount", req.DiscountAmount, totals.DiscountAmount},
		{"grand_total", req.GrandTotal, totals.GrandTotal},
	}
	for _, h := range hints {
		if h.client != nil && !h.client.Equal(h.computed) {
			s.logger.Warn("client total differs from recomputed value",
				zap.String("field", h.field),
				zap.String("client", h.client.String()),
				zap.String("computed", h.computed.String()),
			)
		}
	}
}
