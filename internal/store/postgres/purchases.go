package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

const purchaseColumns = `invoice_number, purchase_date, supplier_name, total, active, created_by, created_at, updated_at, deactivated_at`

const purchaseLineColumns = `line_no, item_code, item_name, quantity, unit_cost, line_total`

// maxGeneratedNumberAttempts bounds the retry when a hand-entered number is
// committed between the free-number check and the insert.
const maxGeneratedNumberAttempts = 3

func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase, invoicePrefix string) (*domain.Purchase, error) {
	generated := purchase.InvoiceNumber == ""
	for attempt := 1; ; attempt++ {
		created, err := s.createPurchase(ctx, purchase, invoicePrefix, generated)
		if err == nil {
			return created, nil
		}
		if !generated || !errors.Is(err, store.ErrConflict) || attempt >= maxGeneratedNumberAttempts {
			return nil, err
		}
	}
}

func (s *Store) createPurchase(ctx context.Context, purchase domain.Purchase, invoicePrefix string, generated bool) (*domain.Purchase, error) {
	var created *domain.Purchase
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if generated {
			number, err := nextFreePurchaseNumber(ctx, tx, invoicePrefix)
			if err != nil {
				return err
			}
			purchase.InvoiceNumber = number
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchases (invoice_number, purchase_date, supplier_name, total, active, created_by, created_at, updated_at)
			VALUES ($1,$2,$3,$4,true,$5,now(),now())
		`, purchase.InvoiceNumber, purchase.PurchaseDate, purchase.SupplierName, purchase.Total, purchase.CreatedBy)
		if isUniqueViolation(err) {
			return store.Conflict("Purchase invoice already exists")
		}
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		for i, line := range purchase.Items {
			line.LineNo = i + 1
			_, err := tx.ExecContext(ctx, `
				INSERT INTO purchase_items (invoice_number, line_no, item_code, item_name, quantity, unit_cost, line_total)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, purchase.InvoiceNumber, line.LineNo, line.ItemCode, line.ItemName, line.Quantity, line.UnitCost, line.LineTotal)
			if err != nil {
				return fmt.Errorf("insert purchase line %d: %w", line.LineNo, err)
			}
			if _, err := increaseStock(ctx, tx, line.ItemCode, line.Quantity); err != nil {
				return err
			}
		}

		created, err = getPurchase(ctx, tx, purchase.InvoiceNumber, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// nextFreePurchaseNumber bumps the counter past numbers that were entered by
// hand. Every bump stays in tx, so the counter commits with the purchase.
func nextFreePurchaseNumber(ctx context.Context, tx *sqlx.Tx, prefix string) (string, error) {
	for {
		seq, err := nextSequence(ctx, tx, prefix)
		if err != nil {
			return "", err
		}
		number := store.FormatSequence(prefix, seq)
		var taken bool
		if err := sqlx.GetContext(ctx, tx, &taken,
			`SELECT EXISTS (SELECT 1 FROM purchases WHERE invoice_number = $1)`, number); err != nil {
			return "", fmt.Errorf("check purchase number %s: %w", number, err)
		}
		if !taken {
			return number, nil
		}
	}
}

func getPurchase(ctx context.Context, q sqlx.ExtContext, invoiceNumber string, forUpdate bool) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE invoice_number = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var purchase domain.Purchase
	err := sqlx.GetContext(ctx, q, &purchase, query, invoiceNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("Purchase not found")
	}
	if err != nil {
		return nil, err
	}

	lines := make([]domain.PurchaseLine, 0, 8)
	if err := sqlx.SelectContext(ctx, q, &lines, `
		SELECT `+purchaseLineColumns+`
		FROM purchase_items
		WHERE invoice_number = $1
		ORDER BY line_no
	`, invoiceNumber); err != nil {
		return nil, err
	}
	purchase.Items = lines
	return &purchase, nil
}

func (s *Store) GetPurchase(ctx context.Context, invoiceNumber string) (*domain.Purchase, error) {
	return getPurchase(ctx, s.db, invoiceNumber, false)
}

func (s *Store) ListPurchases(ctx context.Context, includeInactive bool, limit int) ([]domain.Purchase, error) {
	purchases := make([]domain.Purchase, 0, limit)
	err := s.db.SelectContext(ctx, &purchases, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE active OR $1
		ORDER BY purchase_date DESC, invoice_number DESC
		LIMIT $2
	`, includeInactive, limit)
	if err != nil {
		return nil, err
	}
	if len(purchases) == 0 {
		return purchases, nil
	}

	numbers := make([]string, 0, len(purchases))
	index := make(map[string]int, len(purchases))
	for i, p := range purchases {
		numbers = append(numbers, p.InvoiceNumber)
		index[p.InvoiceNumber] = i
		purchases[i].Items = []domain.PurchaseLine{}
	}

	type lineRow struct {
		InvoiceNumber string `db:"invoice_number"`
		domain.PurchaseLine
	}
	rows := make([]lineRow, 0, len(purchases)*4)
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT invoice_number, `+purchaseLineColumns+`
		FROM purchase_items
		WHERE invoice_number = ANY($1)
		ORDER BY invoice_number, line_no
	`, numbers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		i := index[row.InvoiceNumber]
		purchases[i].Items = append(purchases[i].Items, row.PurchaseLine)
	}
	return purchases, nil
}

func (s *Store) DeactivatePurchase(ctx context.Context, invoiceNumber string, at time.Time) (*domain.Purchase, error) {
	return s.transitionPurchase(ctx, invoiceNumber, at, false)
}

func (s *Store) RestorePurchase(ctx context.Context, invoiceNumber string, at time.Time) (*domain.Purchase, error) {
	return s.transitionPurchase(ctx, invoiceNumber, at, true)
}

func (s *Store) transitionPurchase(ctx context.Context, invoiceNumber string, at time.Time, active bool) (*domain.Purchase, error) {
	var result *domain.Purchase
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		purchase, err := getPurchase(ctx, tx, invoiceNumber, true)
		if err != nil {
			return err
		}

		var deactivatedAt *time.Time
		sign := 1
		if active {
			if purchase.Active {
				return store.Conflict("Purchase is already active")
			}
		} else {
			if !purchase.Active {
				return store.Conflict("Purchase is already inactive")
			}
			deactivatedAt = &at
			sign = -1
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE purchases SET active = $2, deactivated_at = $3, updated_at = $4
			WHERE invoice_number = $1
		`, invoiceNumber, active, deactivatedAt, at)
		if err != nil {
			return fmt.Errorf("update purchase status: %w", err)
		}
		if err := applyMovements(ctx, tx, store.PurchaseLineMovements(purchase.Items, sign)); err != nil {
			return err
		}

		result, err = getPurchase(ctx, tx, invoiceNumber, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
