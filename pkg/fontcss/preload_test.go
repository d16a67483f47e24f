package fontcss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var preloadFaces = []Face{
	{Family: "Open Sans", Style: "normal", Weight: "400", Path: "open-sans/r.woff2"},
	{Family: "Open Sans", Style: "italic", Weight: "700", Path: "open-sans/bi.ttf"},
	{Family: "Roboto", Style: "normal", Weight: "400", Path: "roboto/r.otf"},
	{Family: "Roboto", Style: "normal", Weight: "400", Path: "roboto/dup.woff"},
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "Open Sans-400", Identifier(preloadFaces[0]))
	assert.Equal(t, "Open Sans-700italic", Identifier(preloadFaces[1]))
	assert.True(t, IsIdentifier("Open Sans-700italic"))
	assert.True(t, IsIdentifier("Roboto-400"))
	assert.False(t, IsIdentifier("Open Sans"))
	assert.False(t, IsIdentifier("Noto-Sans"))
}

func TestPreloadHints(t *testing.T) {
	g := NewGenerator("/fonts")
	hints := g.PreloadHints(preloadFaces, []string{"Open Sans-700italic", "Roboto-400", "Missing-400"})
	require.Len(t, hints, 3, "duplicate variants are all preloaded")

	assert.Equal(t, PreloadHint{
		Identifier: "Open Sans-700italic",
		Family:     "Open Sans",
		Weight:     "700",
		Style:      "italic",
		URL:        "/fonts/open-sans/bi.ttf",
		MIME:       "font/ttf",
	}, hints[0])
	assert.Equal(t, "font/otf", hints[1].MIME)
	assert.Equal(t, "font/woff", hints[2].MIME)
	assert.Equal(t, `<link rel="preload" href="/fonts/roboto/r.otf" as="font" type="font/otf" crossorigin>`, hints[1].LinkTag())

	assert.Nil(t, g.PreloadHints(preloadFaces, nil))
	assert.Equal(t, "font/woff2", PreloadMIME("eot"))
}

func TestWeightLabel(t *testing.T) {
	assert.Equal(t, "400 (Regular) - WOFF2", WeightLabel("400", "normal", "woff2"))
	assert.Equal(t, "700 (Bold) Italic - TTF", WeightLabel("700", "italic", "ttf"))
	assert.Equal(t, "250 (Regular) - OTF", WeightLabel("250", "normal", "otf"))
}

func TestPreloadOptions(t *testing.T) {
	opts := PreloadOptions(GroupFaces(preloadFaces), []string{"Open Sans-400"})
	require.Len(t, opts, 2)
	assert.Equal(t, "Open Sans", opts[0].Family)
	require.Len(t, opts[0].Options, 2)
	assert.True(t, opts[0].Options[0].Selected)
	assert.False(t, opts[0].Options[1].Selected)
	assert.Equal(t, "700 (Bold) Italic - TTF", opts[0].Options[1].Label)
}

func TestMigratePreloadIDs(t *testing.T) {
	t.Run("new format untouched", func(t *testing.T) {
		ids := []string{"Roboto-400", "Open Sans-700italic"}
		out, changed := MigratePreloadIDs(ids, preloadFaces)
		assert.False(t, changed)
		assert.Equal(t, ids, out)
	})

	t.Run("families expanded and deduplicated", func(t *testing.T) {
		out, changed := MigratePreloadIDs([]string{"Open Sans", "Roboto-400", "Roboto", "Gone"}, preloadFaces)
		assert.True(t, changed)
		assert.Equal(t, []string{"Open Sans-400", "Open Sans-700italic", "Roboto-400"}, out)

		again, changed := MigratePreloadIDs(out, preloadFaces)
		assert.False(t, changed)
		assert.Equal(t, out, again)
	})

	t.Run("only unknown families", func(t *testing.T) {
		out, changed := MigratePreloadIDs([]string{"Gone"}, preloadFaces)
		assert.True(t, changed)
		assert.Empty(t, out)
		assert.NotNil(t, out)
	})
}
