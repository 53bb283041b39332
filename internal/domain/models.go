package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	Code      string          `json:"code" db:"code"`
	Name      string          `json:"name" db:"name"`
	SellPrice decimal.Decimal `json:"sell_price" db:"sell_price"`
	BuyPrice  decimal.Decimal `json:"buy_price" db:"buy_price"`
	Stock     int             `json:"stock" db:"stock"`
	Active    bool            `json:"active" db:"active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type ItemCreateRequest struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	InitialStock int             `json:"initial_stock"`
}

// ItemUpdateRequest never touches stock; stock only moves through the ledger.
type ItemUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	SellPrice *decimal.Decimal `json:"sell_price,omitempty"`
	BuyPrice  *decimal.Decimal `json:"buy_price,omitempty"`
	Active    *bool            `json:"active,omitempty"`
}

type StockAdjustmentRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

type Member struct {
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type MemberCreateRequest struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type MemberUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentDebit PaymentMethod = "debit"
	PaymentQRIS  PaymentMethod = "qris"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentDebit, PaymentQRIS:
		return true
	}
	return false
}

// SaleStatus values are persisted as-is: paid=1, cancelled=0.
type SaleStatus int

const (
	SaleStatusCancelled SaleStatus = 0
	SaleStatusPaid      SaleStatus = 1
)

func (s SaleStatus) Valid() bool {
	return s == SaleStatusCancelled || s == SaleStatusPaid
}

func (s SaleStatus) String() string {
	if s == SaleStatusPaid {
		return "paid"
	}
	return "cancelled"
}

type Sale struct {
	InvoiceCode     string          `json:"invoice_code" db:"invoice_code"`
	TransactionDate time.Time       `json:"transaction_date" db:"transaction_date"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	MemberCode      string          `json:"member_code,omitempty" db:"member_code"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	ItemDiscount    decimal.Decimal `json:"item_discount" db:"item_discount"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total" db:"grand_total"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	Status          SaleStatus      `json:"status" db:"status"`
	CreatedBy       string          `json:"created_by" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	Items           []SaleLine      `json:"items" db:"-"`
}

func (s Sale) Paid() bool {
	return s.Status == SaleStatusPaid
}

// SaleLine captures the item code and name at sale time; it is not a live reference.
type SaleLine struct {
	LineNo          int             `json:"line_no" db:"line_no"`
	ItemCode        string          `json:"item_code" db:"item_code"`
	ItemName        string          `json:"item_name" db:"item_name"`
	Quantity        int             `json:"quantity" db:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price" db:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	LineTotal       decimal.Decimal `json:"line_total" db:"line_total"`
}

type SaleItemInput struct {
	ItemCode        string           `json:"item_code"`
	Quantity        int              `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

// CreateSaleRequest carries optional client totals. They are compared against
// the recomputed values and never persisted.
type CreateSaleRequest struct {
	TransactionDate *time.Time       `json:"transaction_date,omitempty"`
	CustomerName    string           `json:"customer_name"`
	MemberCode      string           `json:"member_code,omitempty"`
	PaymentMethod   string           `json:"payment_method"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	Items           []SaleItemInput  `json:"items"`
	Subtotal        *decimal.Decimal `json:"subtotal,omitempty"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount,omitempty"`
	GrandTotal      *decimal.Decimal `json:"grand_total,omitempty"`
}

type UpdateSaleRequest struct {
	CreateSaleRequest
	Status *SaleStatus `json:"status,omitempty"`
}

type SaleFilter struct {
	From   time.Time
	To     time.Time
	Status *SaleStatus
	Limit  int
}

type Purchase struct {
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	PurchaseDate  time.Time       `json:"purchase_date" db:"purchase_date"`
	SupplierName  string          `json:"supplier_name" db:"supplier_name"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Active        bool            `json:"active" db:"active"`
	CreatedBy     string          `json:"created_by" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	DeactivatedAt *time.Time      `json:"deactivated_at,omitempty" db:"deactivated_at"`
	Items         []PurchaseLine  `json:"items" db:"-"`
}

type PurchaseLine struct {
	LineNo    int             `json:"line_no" db:"line_no"`
	ItemCode  string          `json:"item_code" db:"item_code"`
	ItemName  string          `json:"item_name" db:"item_name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}

type PurchaseItemInput struct {
	ItemCode string           `json:"item_code"`
	Quantity int              `json:"quantity"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

type CreatePurchaseRequest struct {
	InvoiceNumber string              `json:"invoice_number,omitempty"`
	PurchaseDate  *time.Time          `json:"purchase_date,omitempty"`
	SupplierName  string              `json:"supplier_name"`
	Items         []PurchaseItemInput `json:"items"`
}

// StockMovement is a signed change to an item's stock; negative removes stock.
type StockMovement struct {
	ItemCode string
	Delta    int
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id" db:"id"`
	ActorUsername string    `json:"actor_username" db:"actor_username"`
	ActorRole     string    `json:"actor_role" db:"actor_role"`
	Action        string    `json:"action" db:"action"`
	EntityType    string    `json:"entity_type" db:"entity_type"`
	EntityID      string    `json:"entity_id" db:"entity_id"`
	Detail        string    `json:"detail" db:"detail"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
