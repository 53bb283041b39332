package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCarriesTypeAndPayload(t *testing.T) {
	evt := New(SaleCancelled, "INV2503140001", "admin", map[string]any{"status": 0})

	raw, err := evt.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "sale.cancelled", decoded["type"])
	assert.Equal(t, "INV2503140001", decoded["key"])
	assert.Equal(t, "admin", decoded["actor"])
	assert.NotEmpty(t, decoded["id"])
	assert.Equal(t, map[string]any{"status": float64(0)}, decoded["payload"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(StockAdjusted, "A", "system", nil)))
	assert.NoError(t, p.Close())
}
