package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/biz/registry"
	"github.com/chrmrtns/safefonts/biz/settings"
	"github.com/chrmrtns/safefonts/biz/testutil"
	"github.com/chrmrtns/safefonts/pkg/assets"
	"github.com/chrmrtns/safefonts/pkg/cache"
	"github.com/chrmrtns/safefonts/pkg/fontcss"
	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/snowflake"
)

func newService(t *testing.T) *fonts.Service {
	t.Helper()
	db := testutil.NewTestDB(t)
	store, err := assets.NewLocalFS(filepath.Join(t.TempDir(), "fonts"), "")
	require.NoError(t, err)
	reg := registry.New(db, cache.NewMemory(), snowflake.MustNew(1), 0)
	return fonts.NewService(reg, store, settings.New(db), fontcss.NewGenerator("/fonts"))
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`
fonts:
  - file: a.woff2
    family: Open Sans
    weight: 700
    style: italic
  - file: b.ttf
`))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{File: "a.woff2", Family: "Open Sans", Weight: "700", Style: "italic"},
		{File: "b.ttf"},
	}, m.Fonts)
}

func TestParseManifestInvalid(t *testing.T) {
	cases := map[string]string{
		"not yaml":      "fonts: [",
		"empty":         "",
		"no fonts":      "fonts: []",
		"missing file":  "fonts:\n  - family: X\n",
		"bad weight":    "fonts:\n  - file: a.woff2\n    weight: 450\n",
		"bad style":     "fonts:\n  - file: a.woff2\n    style: oblique\n",
		"unknown field": "fonts:\n  - file: a.woff2\n    size: 1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(doc))
			require.Error(t, err)
			assert.Equal(t, fonterr.InvalidInput, fonterr.KindOf(err))
		})
	}
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	write("OpenSans.woff2", testutil.FontBytes("woff2", 256))
	write("GoBoldItalic.ttf", testutil.GoBoldItalic())
	write("Broken.ttf", make([]byte, 64))
	write("manifest.yaml", []byte(`
fonts:
  - file: OpenSans.woff2
    family: Open Sans
    weight: "400"
  - file: GoBoldItalic.ttf
  - file: Broken.ttf
    family: Broken
  - file: Missing.woff2
    family: Missing
`))

	svc := newService(t)
	res, err := New(svc).ImportFile(context.Background(), filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, err)

	require.Len(t, res.Imported, 2)
	assert.Equal(t, "OpenSans.woff2", res.Imported[0].File)
	assert.Regexp(t, `^open-sans/OpenSans-\d+\.woff2$`, res.Imported[0].Path)
	assert.Regexp(t, `^go/GoBoldItalic-\d+\.ttf$`, res.Imported[1].Path)

	require.Len(t, res.Failed, 2)
	assert.Equal(t, fonterr.SignatureMismatch, res.Failed[0].Kind)
	assert.Equal(t, "Missing.woff2", res.Failed[1].File)
	assert.Equal(t, fonterr.EmptyFile, res.Failed[1].Kind)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Go", list[0].FontFamily)
	assert.Equal(t, "700", list[0].FontWeight)
	assert.Equal(t, "italic", list[0].FontStyle)
}

func TestImportFileInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("fonts: []"), 0o644))
	_, err := New(newService(t)).ImportFile(context.Background(), filepath.Join(dir, "manifest.yaml"))
	assert.Error(t, err)

	_, err = New(newService(t)).ImportFile(context.Background(), filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
