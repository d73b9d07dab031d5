package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_sync/internal/domain"
)

func TestNewItemMessage(t *testing.T) {
	now := time.Date(2026, 10, 16, 18, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	item := &domain.NewsItem{ID: 4, GUID: "g-4", Title: "headline", Link: "https://example.com/4"}

	created := NewItemMessage(item, true, now)
	assert.Equal(t, ActionCreate, created.Action)
	assert.Equal(t, time.UTC, created.Timestamp.Location())
	assert.True(t, created.Timestamp.Equal(now))

	updated := NewItemMessage(item, false, now)
	assert.Equal(t, ActionUpdate, updated.Action)
	assert.Equal(t, *item, updated.Item)
}

func TestItemMessage_JSONFieldNames(t *testing.T) {
	msg := NewItemMessage(&domain.NewsItem{GUID: "g", Title: "t"}, true, time.Now())

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "create", raw["action"])
	require.Contains(t, raw, "item")
	assert.Equal(t, "g", raw["item"].(map[string]any)["guid"])
	assert.Contains(t, raw, "timestamp")
}
