package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{"short question kept whole", "What does Germany export?", "What does Germany export?"},
		{"first sentence only", "Chile exports copper. Tell me more about it.", "Chile exports copper."},
		{"exclamation ends sentence", "Show me Vietnam! And then Laos.", "Show me Vietnam!"},
		{"leading whitespace trimmed", "  What is ECI?  ", "What is ECI?"},
		{"empty returned unchanged", "", ""},
		{"whitespace-only returned unchanged", "   ", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveTitle(tt.message, 50))
		})
	}
}

func TestDeriveTitleTruncatesOnWordBoundary(t *testing.T) {
	message := "Tell me about the economic complexity rankings of all South American countries over time"

	title := DeriveTitle(message, 50)

	assert.LessOrEqual(t, len(title), 50)
	assert.True(t, len(title) > 3)
	assert.Equal(t, "...", title[len(title)-3:])
	assert.NotContains(t, title[:len(title)-3], "  ")
}

func TestMemoryStoreCreateIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, "t1", "s1", "First title")
	require.NoError(t, err)

	second, err := store.Create(ctx, "t1", "s1", "Different title")
	require.NoError(t, err)

	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestMemoryStoreListBySessionOrdersByUpdatedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "t1", "s1", "older")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = store.Create(ctx, "t2", "s1", "newer")
	require.NoError(t, err)
	_, err = store.Create(ctx, "t3", "other-session", "elsewhere")
	require.NoError(t, err)

	list, err := store.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].ID)
	assert.Equal(t, "t1", list[1].ID)
}

func TestMemoryStoreUpdateTimestampReorders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "t1", "s1", "first")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = store.Create(ctx, "t2", "s1", "second")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, store.UpdateTimestamp(ctx, "t1"))

	list, err := store.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ID)
}

func TestMemoryStoreGetUnknownReturnsNil(t *testing.T) {
	store := NewMemoryStore()

	conv, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestMemoryStoreDeleteUnknownIsNoop(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "missing"))

	_, err := store.Create(ctx, "t1", "s1", "title")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "t1"))

	conv, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, conv)
}
