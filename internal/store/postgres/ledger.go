package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

const itemColumns = `code, name, sell_price, buy_price, stock, active, created_at, updated_at`

// decreaseStock is a single conditional update, so two concurrent sales of the
// same item cannot both pass the sufficiency check.
func decreaseStock(ctx context.Context, q sqlx.ExtContext, code string, qty int) (*domain.Item, error) {
	var item domain.Item
	err := sqlx.GetContext(ctx, q, &item, `
		UPDATE items
		SET stock = stock - $1, updated_at = now()
		WHERE code = $2 AND stock >= $1
		RETURNING `+itemColumns, qty, code)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decrease stock %s: %w", code, err)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM items WHERE code = $1)`, code); err != nil {
		return nil, fmt.Errorf("lookup item %s: %w", code, err)
	}
	if !exists {
		return nil, store.ItemNotFound(code)
	}
	return nil, store.InsufficientStock(code)
}

func increaseStock(ctx context.Context, q sqlx.ExtContext, code string, qty int) (*domain.Item, error) {
	var item domain.Item
	err := sqlx.GetContext(ctx, q, &item, `
		UPDATE items
		SET stock = stock + $1, updated_at = now()
		WHERE code = $2
		RETURNING `+itemColumns, qty, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ItemNotFound(code)
	}
	if err != nil {
		return nil, fmt.Errorf("increase stock %s: %w", code, err)
	}
	return &item, nil
}

// applyMovements runs movements in order; the caller's transaction rolls all of
// them back if one fails.
func applyMovements(ctx context.Context, q sqlx.ExtContext, movements []domain.StockMovement) error {
	for _, mv := range movements {
		var err error
		switch {
		case mv.Delta < 0:
			_, err = decreaseStock(ctx, q, mv.ItemCode, -mv.Delta)
		case mv.Delta > 0:
			_, err = increaseStock(ctx, q, mv.ItemCode, mv.Delta)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// nextSequence bumps the per-prefix counter. The row lock taken by the upsert
// serializes concurrent callers until commit, and a rollback returns the value.
func nextSequence(ctx context.Context, q sqlx.ExtContext, prefix string) (int, error) {
	var seq int
	err := sqlx.GetContext(ctx, q, &seq, `
		INSERT INTO invoice_sequences (prefix, last_value)
		VALUES ($1, 1)
		ON CONFLICT (prefix)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value
	`, prefix)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", prefix, err)
	}
	return seq, nil
}

func (s *Store) IncreaseStock(ctx context.Context, code string, qty int) (*domain.Item, error) {
	return increaseStock(ctx, s.db, code, qty)
}

func (s *Store) DecreaseStock(ctx context.Context, code string, qty int) (*domain.Item, error) {
	return decreaseStock(ctx, s.db, code, qty)
}
