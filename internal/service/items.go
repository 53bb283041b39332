package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/events"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/pricing"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func (s *Service) ListItems(ctx context.Context, includeInactive bool) ([]domain.Item, error) {
	return s.repo.ListItems(ctx, includeInactive)
}

func (s *Service) GetItem(ctx context.Context, code string) (domain.Item, error) {
	item, err := s.repo.GetItem(ctx, normalizeCode(code))
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	code := normalizeCode(req.Code)
	name := strings.TrimSpace(req.Name)
	switch {
	case code == "":
		return domain.Item{}, store.Invalid("Item code is required")
	case name == "":
		return domain.Item{}, store.Invalid("Item name is required")
	case req.SellPrice.IsNegative() || req.BuyPrice.IsNegative():
		return domain.Item{}, store.Invalid("Item price must not be negative")
	case req.InitialStock < 0:
		return domain.Item{}, store.Invalid("Stock must not be negative")
	}

	created, err := s.repo.CreateItem(ctx, domain.Item{
		Code:      code,
		Name:      name,
		SellPrice: pricing.Round(req.SellPrice),
		BuyPrice:  pricing.Round(req.BuyPrice),
		Stock:     req.InitialStock,
		Active:    true,
	})
	if err != nil {
		return domain.Item{}, err
	}
	s.logAudit(ctx, "item_create", "item", created.Code, map[string]any{
		"sell_price":    created.SellPrice.String(),
		"initial_stock": created.Stock,
	})
	return *created, nil
}

// UpdateItem patches descriptive fields only. Stock is never written here.
func (s *Service) UpdateItem(ctx context.Context, code string, req domain.ItemUpdateRequest) (domain.Item, error) {
	code = normalizeCode(code)
	item, err := s.repo.GetItem(ctx, code)
	if err != nil {
		return domain.Item{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Item{}, store.Invalid("Item name is required")
		}
		item.Name = name
	}
	if req.SellPrice != nil {
		if req.SellPrice.IsNegative() {
			return domain.Item{}, store.Invalid("Item price must not be negative")
		}
		item.SellPrice = pricing.Round(*req.SellPrice)
	}
	if req.BuyPrice != nil {
		if req.BuyPrice.IsNegative() {
			return domain.Item{}, store.Invalid("Item price must not be negative")
		}
		item.BuyPrice = pricing.Round(*req.BuyPrice)
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	updated, err := s.repo.UpdateItem(ctx, *item)
	if err != nil {
		return domain.Item{}, err
	}
	s.logAudit(ctx, "item_update", "item", updated.Code, map[string]any{
		"name":       updated.Name,
		"sell_price": updated.SellPrice.String(),
		"active":     updated.Active,
	})
	return *updated, nil
}

func (s *Service) IncreaseStock(ctx context.Context, code string, req domain.StockAdjustmentRequest) (domain.Item, error) {
	return s.adjustStock(ctx, code, req, 1)
}

func (s *Service) DecreaseStock(ctx context.Context, code string, req domain.StockAdjustmentRequest) (domain.Item, error) {
	return s.adjustStock(ctx, code, req, -1)
}

func (s *Service) adjustStock(ctx context.Context, code string, req domain.StockAdjustmentRequest, sign int) (item domain.Item, err error) {
	code = normalizeCode(code)
	ctx, span := s.startSpan(ctx, "stock.adjust",
		attribute.String("item.code", code),
		attribute.Int("stock.delta", sign*req.Quantity),
	)
	defer func() { finishSpan(span, err) }()

	if code == "" {
		return domain.Item{}, store.Invalid("Item code is required")
	}
	if req.Quantity <= 0 {
		return domain.Item{}, store.Invalid("Quantity must be greater than 0")
	}

	var adjusted *domain.Item
	if sign > 0 {
		adjusted, err = s.repo.IncreaseStock(ctx, code, req.Quantity)
	} else {
		adjusted, err = s.repo.DecreaseStock(ctx, code, req.Quantity)
	}
	if err != nil {
		return domain.Item{}, err
	}

	detail := map[string]any{
		"delta":       sign * req.Quantity,
		"stock_after": adjusted.Stock,
		"note":        strings.TrimSpace(req.Note),
	}
	s.logAudit(ctx, "stock_adjust", "item", adjusted.Code, detail)
	s.publish(ctx, events.StockAdjusted, adjusted.Code, detail)
	return *adjusted, nil
}
