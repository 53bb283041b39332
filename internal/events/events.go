// Package events publishes domain events after a sale, purchase or stock
// change has been committed. Publishing is best-effort; callers log failures
// and carry on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/xid"
)

const (
	SaleCreated         = "sale.created"
	SaleUpdated         = "sale.updated"
	SaleCancelled       = "sale.cancelled"
	SaleRestored        = "sale.restored"
	PurchaseCreated     = "purchase.created"
	PurchaseDeactivated = "purchase.deactivated"
	PurchaseRestored    = "purchase.restored"
	StockAdjusted       = "stock.adjusted"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType string, key string, actor string, payload any) Event {
	return Event{
		ID:         xid.New("evt"),
		Type:       eventType,
		Key:        key,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
