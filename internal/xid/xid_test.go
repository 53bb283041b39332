package xid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasPrefixAndUUID(t *testing.T) {
	id := New("audit")

	require.True(t, strings.HasPrefix(id, "audit-"))
	_, err := uuid.Parse(strings.TrimPrefix(id, "audit-"))
	assert.NoError(t, err)
	assert.NotEqual(t, id, New("audit"))
}
