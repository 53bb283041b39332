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

const saleColumns = `invoice_code, transaction_date, customer_name, member_code, subtotal, item_discount,
	discount_percent, discount_amount, grand_total, payment_method, status, created_by,
	created_at, updated_at, cancelled_at`

const saleLineColumns = `line_no, item_code, item_name, quantity, unit_price, discount_percent, discount_amount, line_total`

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale, invoicePrefix string) (*domain.Sale, error) {
	var created *domain.Sale
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		seq, err := nextSequence(ctx, tx, invoicePrefix)
		if err != nil {
			return err
		}
		sale.InvoiceCode = store.FormatSequence(invoicePrefix, seq)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sales (
				invoice_code, transaction_date, customer_name, member_code, subtotal, item_discount,
				discount_percent, discount_amount, grand_total, payment_method, status, created_by,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
		`, sale.InvoiceCode, sale.TransactionDate, sale.CustomerName, sale.MemberCode, sale.Subtotal, sale.ItemDiscount,
			sale.DiscountPercent, sale.DiscountAmount, sale.GrandTotal, sale.PaymentMethod, sale.Status, sale.CreatedBy)
		if isUniqueViolation(err) {
			return store.Conflict("Invoice code already exists")
		}
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		// Line first, then its stock, then the next line.
		for i := range sale.Items {
			sale.Items[i].LineNo = i + 1
			if err := insertSaleLine(ctx, tx, sale.InvoiceCode, sale.Items[i]); err != nil {
				return err
			}
			if _, err := decreaseStock(ctx, tx, sale.Items[i].ItemCode, sale.Items[i].Quantity); err != nil {
				return err
			}
		}

		created, err = getSale(ctx, tx, sale.InvoiceCode, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertSaleLine(ctx context.Context, tx *sqlx.Tx, invoiceCode string, line domain.SaleLine) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sale_items (
			invoice_code, line_no, item_code, item_name, quantity, unit_price,
			discount_percent, discount_amount, line_total
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, invoiceCode, line.LineNo, line.ItemCode, line.ItemName, line.Quantity, line.UnitPrice,
		line.DiscountPercent, line.DiscountAmount, line.LineTotal)
	if err != nil {
		return fmt.Errorf("insert sale line %d: %w", line.LineNo, err)
	}
	return nil
}

// getSale loads a header and its lines. forUpdate locks the header row until
// the surrounding transaction ends.
func getSale(ctx context.Context, q sqlx.ExtContext, invoiceCode string, forUpdate bool) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE invoice_code = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var sale domain.Sale
	err := sqlx.GetContext(ctx, q, &sale, query, invoiceCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("Sale not found")
	}
	if err != nil {
		return nil, err
	}

	lines := make([]domain.SaleLine, 0, 8)
	if err := sqlx.SelectContext(ctx, q, &lines, `
		SELECT `+saleLineColumns+`
		FROM sale_items
		WHERE invoice_code = $1
		ORDER BY line_no
	`, invoiceCode); err != nil {
		return nil, err
	}
	sale.Items = lines
	return &sale, nil
}

func (s *Store) GetSale(ctx context.Context, invoiceCode string) (*domain.Sale, error) {
	return getSale(ctx, s.db, invoiceCode, false)
}

func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	var status sql.NullInt16
	if filter.Status != nil {
		status = sql.NullInt16{Int16: int16(*filter.Status), Valid: true}
	}
	var from, to sql.NullTime
	if !filter.From.IsZero() {
		from = sql.NullTime{Time: filter.From, Valid: true}
	}
	if !filter.To.IsZero() {
		to = sql.NullTime{Time: filter.To, Valid: true}
	}

	sales := make([]domain.Sale, 0, filter.Limit)
	err := s.db.SelectContext(ctx, &sales, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE ($1::timestamptz IS NULL OR transaction_date >= $1)
		  AND ($2::timestamptz IS NULL OR transaction_date < $2)
		  AND ($3::smallint IS NULL OR status = $3)
		ORDER BY transaction_date DESC, invoice_code DESC
		LIMIT $4
	`, from, to, status, filter.Limit)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	codes := make([]string, 0, len(sales))
	index := make(map[string]int, len(sales))
	for i, sale := range sales {
		codes = append(codes, sale.InvoiceCode)
		index[sale.InvoiceCode] = i
		sales[i].Items = []domain.SaleLine{}
	}

	type lineRow struct {
		InvoiceCode string `db:"invoice_code"`
		domain.SaleLine
	}
	rows := make([]lineRow, 0, len(sales)*4)
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT invoice_code, `+saleLineColumns+`
		FROM sale_items
		WHERE invoice_code = ANY($1)
		ORDER BY invoice_code, line_no
	`, codes); err != nil {
		return nil, err
	}
	for _, row := range rows {
		i := index[row.InvoiceCode]
		sales[i].Items = append(sales[i].Items, row.SaleLine)
	}
	return sales, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	var updated *domain.Sale
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := getSale(ctx, tx, sale.InvoiceCode, true)
		if err != nil {
			return err
		}
		if err := applyMovements(ctx, tx, store.ReconcileSale(*existing, sale)); err != nil {
			return err
		}

		now := time.Now().UTC()
		cancelledAt := existing.CancelledAt
		switch {
		case existing.Paid() && !sale.Paid():
			cancelledAt = &now
		case sale.Paid():
			cancelledAt = nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sales
			SET transaction_date = $2, customer_name = $3, member_code = $4, subtotal = $5, item_discount = $6,
				discount_percent = $7, discount_amount = $8, grand_total = $9, payment_method = $10,
				status = $11, cancelled_at = $12, updated_at = $13
			WHERE invoice_code = $1
		`, sale.InvoiceCode, sale.TransactionDate, sale.CustomerName, sale.MemberCode, sale.Subtotal, sale.ItemDiscount,
			sale.DiscountPercent, sale.DiscountAmount, sale.GrandTotal, sale.PaymentMethod,
			sale.Status, cancelledAt, now)
		if err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE invoice_code = $1`, sale.InvoiceCode); err != nil {
			return fmt.Errorf("clear sale lines: %w", err)
		}
		for i := range sale.Items {
			sale.Items[i].LineNo = i + 1
			if err := insertSaleLine(ctx, tx, sale.InvoiceCode, sale.Items[i]); err != nil {
				return err
			}
		}

		updated, err = getSale(ctx, tx, sale.InvoiceCode, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) CancelSale(ctx context.Context, invoiceCode string, at time.Time) (*domain.Sale, error) {
	return s.transitionSale(ctx, invoiceCode, at, domain.SaleStatusCancelled)
}

func (s *Store) RestoreSale(ctx context.Context, invoiceCode string, at time.Time) (*domain.Sale, error) {
	return s.transitionSale(ctx, invoiceCode, at, domain.SaleStatusPaid)
}

func (s *Store) transitionSale(ctx context.Context, invoiceCode string, at time.Time, target domain.SaleStatus) (*domain.Sale, error) {
	var result *domain.Sale
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		sale, err := getSale(ctx, tx, invoiceCode, true)
		if err != nil {
			return err
		}

		var cancelledAt *time.Time
		sign := -1
		if target == domain.SaleStatusCancelled {
			if !sale.Paid() {
				return store.Conflict("Sale is already cancelled")
			}
			cancelledAt = &at
			sign = 1
		} else if sale.Paid() {
			return store.Conflict("Sale is not cancelled")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sales SET status = $2, cancelled_at = $3, updated_at = $4
			WHERE invoice_code = $1
		`, invoiceCode, target, cancelledAt, at)
		if err != nil {
			return fmt.Errorf("update sale status: %w", err)
		}
		if err := applyMovements(ctx, tx, store.SaleLineMovements(sale.Items, sign)); err != nil {
			return err
		}

		result, err = getSale(ctx, tx, invoiceCode, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
