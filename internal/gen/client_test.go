package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_Accessors(t *testing.T) {
	t.Parallel()

	payload := Payload{
		"title":    "Q4 automation deep dive",
		"count":    12.0,
		"approved": true,
		"tags":     []any{"automation", "devops"},
		"items":    []any{map[string]any{"day": "monday"}, map[string]any{"day": "tuesday"}},
		"meta":     map[string]any{"week": 2.0},
	}

	title, ok := payload.String("title")
	require.True(t, ok)
	assert.Equal(t, "Q4 automation deep dive", title)

	count, ok := payload.Number("count")
	require.True(t, ok)
	assert.InDelta(t, 12.0, count, 0.0001)

	n, ok := payload.Int("count")
	require.True(t, ok)
	assert.Equal(t, 12, n)

	approved, ok := payload.Bool("approved")
	require.True(t, ok)
	assert.True(t, approved)

	tags, ok := payload.StringList("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"automation", "devops"}, tags)

	items, ok := payload.MapList("items")
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "monday", items[0]["day"])

	meta, ok := payload.Map("meta")
	require.True(t, ok)
	assert.InDelta(t, 2.0, meta["week"], 0.0001)

	list, ok := payload.List("tags")
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestPayload_Accessors_Mismatches(t *testing.T) {
	t.Parallel()

	payload := Payload{
		"title": "only a string",
		"mixed": []any{"ok", 7.0},
	}

	_, ok := payload.String("missing")
	assert.False(t, ok)

	_, ok = payload.Number("title")
	assert.False(t, ok)

	_, ok = payload.Int("title")
	assert.False(t, ok)

	_, ok = payload.StringList("title")
	assert.False(t, ok, "non-list value")

	_, ok = payload.StringList("mixed")
	assert.False(t, ok, "list with non-string element")

	_, ok = payload.MapList("mixed")
	assert.False(t, ok, "list with non-map element")
}
