package store

import (
	"context"
	"time"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
)

// Repository is implemented by the memory and postgres stores. Every method that
// changes stock runs as one atomic unit: either all movements and rows are
// written or none are.
type Repository interface {
	ListItems(ctx context.Context, includeInactive bool) ([]domain.Item, error)
	GetItem(ctx context.Context, code string) (*domain.Item, error)
	GetItemsByCodes(ctx context.Context, codes []string) (map[string]domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	IncreaseStock(ctx context.Context, code string, qty int) (*domain.Item, error)
	DecreaseStock(ctx context.Context, code string, qty int) (*domain.Item, error)

	ListMembers(ctx context.Context) ([]domain.Member, error)
	GetMember(ctx context.Context, code string) (*domain.Member, error)
	CreateMember(ctx context.Context, member domain.Member) (*domain.Member, error)
	UpdateMember(ctx context.Context, member domain.Member) (*domain.Member, error)

	// CreateSale allocates the next invoice code under invoicePrefix, writes the
	// header and lines, and takes each line's quantity out of stock in order.
	CreateSale(ctx context.Context, sale domain.Sale, invoicePrefix string) (*domain.Sale, error)
	GetSale(ctx context.Context, invoiceCode string) (*domain.Sale, error)
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	CancelSale(ctx context.Context, invoiceCode string, at time.Time) (*domain.Sale, error)
	RestoreSale(ctx context.Context, invoiceCode string, at time.Time) (*domain.Sale, error)

	// CreatePurchase allocates an invoice number under invoicePrefix only when
	// purchase.InvoiceNumber is empty.
	CreatePurchase(ctx context.Context, purchase domain.Purchase, invoicePrefix string) (*domain.Purchase, error)
	GetPurchase(ctx context.Context, invoiceNumber string) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, includeInactive bool, limit int) ([]domain.Purchase, error)
	DeactivatePurchase(ctx context.Context, invoiceNumber string, at time.Time) (*domain.Purchase, error)
	RestorePurchase(ctx context.Context, invoiceNumber string, at time.Time) (*domain.Purchase, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
}
