package xid

import "github.com/google/uuid"

// New returns a random identifier such as "audit-0b6f...". Time-ordered UUIDv7
// keeps audit rows roughly in insert order.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "-" + id.String()
}
