package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svc "github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/biz/registry"
	"github.com/chrmrtns/safefonts/biz/settings"
	"github.com/chrmrtns/safefonts/biz/testutil"
	"github.com/chrmrtns/safefonts/pkg/assets"
	"github.com/chrmrtns/safefonts/pkg/cache"
	"github.com/chrmrtns/safefonts/pkg/fontcss"
	"github.com/chrmrtns/safefonts/pkg/serve"
	"github.com/chrmrtns/safefonts/pkg/snowflake"
	ht "github.com/chrmrtns/safefonts/pkg/testutil"
)

func TestInit(t *testing.T) {
	db := testutil.NewTestDB(t)
	root := filepath.Join(t.TempDir(), "fonts")
	store, err := assets.NewLocalFS(root, "index.html")
	require.NoError(t, err)
	reg := registry.New(db, cache.NewMemory(), snowflake.MustNew(1), 0)
	service := svc.NewService(reg, store, settings.New(db), fontcss.NewGenerator("/fonts"))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "roboto"), 0o755))
	data := testutil.FontBytes("woff2", 128)
	require.NoError(t, os.WriteFile(filepath.Join(root, "roboto", "Roboto-1.woff2"), data, 0o644))

	e := serve.EchoTestSetup()
	require.NoError(t, Init(service, Options{AssetDir: root})(e))

	rec := ht.Get(e, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ht.Get(e, "/fonts/roboto/Roboto-1.woff2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = ht.Get(e, "/fonts/roboto/missing.woff2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ht.Get(e, "/fonts/../go.mod", nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = ht.Get(e, "/api/admin/fonts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
