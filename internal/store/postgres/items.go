package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func (s *Store) ListItems(ctx context.Context, includeInactive bool) ([]domain.Item, error) {
	items := make([]domain.Item, 0, 64)
	err := s.db.SelectContext(ctx, &items, `
		SELECT `+itemColumns+`
		FROM items
		WHERE active OR $1
		ORDER BY code
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, code string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM items WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ItemNotFound(code)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetItemsByCodes(ctx context.Context, codes []string) (map[string]domain.Item, error) {
	out := make(map[string]domain.Item, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	items := make([]domain.Item, 0, len(codes))
	if err := s.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM items WHERE code = ANY($1)`, codes); err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.Code] = item
	}
	return out, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	var created domain.Item
	err := s.db.GetContext(ctx, &created, `
		INSERT INTO items (code, name, sell_price, buy_price, stock, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+itemColumns,
		item.Code, item.Name, item.SellPrice, item.BuyPrice, item.Stock, item.Active)
	if isUniqueViolation(err) {
		return nil, store.Conflict("Item code already exists")
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	var updated domain.Item
	err := s.db.GetContext(ctx, &updated, `
		UPDATE items
		SET name = $2, sell_price = $3, buy_price = $4, active = $5, updated_at = now()
		WHERE code = $1
		RETURNING `+itemColumns,
		item.Code, item.Name, item.SellPrice, item.BuyPrice, item.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ItemNotFound(item.Code)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
