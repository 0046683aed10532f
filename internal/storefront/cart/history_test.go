package cart

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/wire"
)

func TestHistoryAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.json")

	entries, err := LoadHistory(path)
	require.NoError(t, err)
	assert.Empty(t, entries)

	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, SaveToHistory(path, wire.Order{ID: "ORD-1", Name: "Alice", Total: "134.4"}, now))
	require.NoError(t, SaveToHistory(path, wire.Order{ID: "ORD-2", Name: "Alice", Total: "168"}, now.Add(time.Minute)))

	entries, err = LoadHistory(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ORD-1", entries[0].ID)
	assert.Equal(t, "ORD-2", entries[1].ID)
	assert.Equal(t, "168", entries[1].Total.String())
	assert.True(t, entries[1].TS.Equal(now.Add(time.Minute)))
}

func TestHistoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadHistory(path)
	require.Error(t, err)
	require.Error(t, SaveToHistory(path, wire.Order{ID: "ORD-1"}, time.Now()))
}
