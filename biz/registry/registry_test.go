package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrmrtns/safefonts/biz"
	"github.com/chrmrtns/safefonts/biz/testutil"
	"github.com/chrmrtns/safefonts/pkg/cache"
	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/snowflake"
)

func newRegistry(t *testing.T) (*Registry, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory()
	return New(testutil.NewTestDB(t), mem, snowflake.MustNew(1), 0), mem
}

func variant(family, weight, style, path string) *biz.FontVariant {
	return &biz.FontVariant{
		FontFamily: family,
		FontWeight: weight,
		FontStyle:  style,
		FilePath:   path,
		FileHash:   "00",
		FileSize:   10,
		MimeType:   "font/woff2",
	}
}

func names(list []biz.FontVariant) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, v.FontFamily+"-"+v.FontWeight+v.FontStyle)
	}
	return out
}

func TestInsertAndAll(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	for _, v := range []*biz.FontVariant{
		variant("Roboto", "700", "normal", "roboto/b.woff2"),
		variant("Lato", "400", "italic", "lato/i.woff2"),
		variant("Roboto", "400", "", "roboto/r.woff2"),
	} {
		id, err := r.Insert(ctx, v)
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.Equal(t, id, v.ID)
	}

	list, err := r.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lato-400italic", "Roboto-400normal", "Roboto-700normal"}, names(list))
	assert.Equal(t, "roboto", list[1].FamilySlug)
	assert.False(t, list[1].CreatedAt.IsZero())

	got, err := r.Get(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "lato/i.woff2", got.FilePath)

	families, err := r.GroupedByFamily(ctx)
	require.NoError(t, err)
	require.Len(t, families, 2)
	assert.Equal(t, "Lato", families[0].Name)
	assert.Equal(t, "roboto", families[1].Slug)
	assert.Len(t, families[1].Variants, 2)
}

func TestDuplicatesAllowed(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	_, err := r.Insert(ctx, variant("Roboto", "400", "normal", "roboto/a.woff2"))
	require.NoError(t, err)
	_, err = r.Insert(ctx, variant("Roboto", "400", "normal", "roboto/b.woff2"))
	require.NoError(t, err)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	r, mem := newRegistry(t)

	_, err := r.Insert(ctx, variant("Roboto", "400", "normal", "roboto/r.woff2"))
	require.NoError(t, err)

	list, err := r.All(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, ok, _ := mem.Get(ctx, CacheKey())
	assert.True(t, ok, "All populates the cache")

	// 绕过 registry 修改数据库, 缓存仍然生效
	_, err = r.db.Exec("DELETE FROM safefonts_fonts")
	require.NoError(t, err)
	list, err = r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	r.InvalidateCache(ctx)
	list, err = r.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	t.Run("insert invalidates", func(t *testing.T) {
		_, err := r.Insert(ctx, variant("Lato", "300", "normal", "lato/l.woff2"))
		require.NoError(t, err)
		_, ok, _ := mem.Get(ctx, CacheKey())
		assert.False(t, ok)

		list, err := r.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Lato-300normal"}, names(list))
	})

	t.Run("delete invalidates", func(t *testing.T) {
		list, err := r.All(ctx)
		require.NoError(t, err)
		ok, err := r.Delete(ctx, list[0].ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, cached, _ := mem.Get(ctx, CacheKey())
		assert.False(t, cached)
		list, err = r.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestCorruptCacheEntry(t *testing.T) {
	ctx := context.Background()
	r, mem := newRegistry(t)
	_, err := r.Insert(ctx, variant("Roboto", "400", "normal", "roboto/r.woff2"))
	require.NoError(t, err)

	require.NoError(t, mem.Set(ctx, CacheKey(), []byte("{not json"), 0))
	list, err := r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := r.Insert(ctx, variant("Roboto", "400", "normal", "roboto/r.woff2"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := r.All(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 8, "no stale list survives the last write")
}

func TestGetAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	_, err := r.Get(ctx, 42)
	assert.True(t, fonterr.Is(err, fonterr.RecordNotFound))

	ok, err := r.Delete(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertFailure(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)
	require.NoError(t, r.db.Close())

	_, err := r.Insert(ctx, variant("Roboto", "400", "normal", "roboto/r.woff2"))
	require.Error(t, err)
	assert.Equal(t, fonterr.RegistryInsertFailed, fonterr.KindOf(err))
}

func TestLegacyQueries(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	flat := variant("Open Sans", "400", "normal", "OpenSans.woff2")
	_, err := r.Insert(ctx, flat)
	require.NoError(t, err)
	_, err = r.Insert(ctx, variant("Lato", "400", "normal", "lato/l.woff2"))
	require.NoError(t, err)
	_, err = r.db.Exec("UPDATE safefonts_fonts SET family_slug = '' WHERE id = ?", flat.ID)
	require.NoError(t, err)

	list, err := r.FlatPathVariants(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, flat.ID, list[0].ID)

	list, err = r.MissingSlugVariants(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, r.UpdateSlug(ctx, flat.ID, "open-sans"))
	list, err = r.MissingSlugVariants(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, r.UpdateLocation(ctx, flat.ID, "open-sans/OpenSans.woff2", "open-sans"))
	list, err = r.FlatPathVariants(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := r.Get(ctx, flat.ID)
	require.NoError(t, err)
	assert.Equal(t, "open-sans/OpenSans.woff2", got.FilePath)
}

// holdCache 让第一次 Set 阻塞, 使第一次查询停留在 singleflight 中
type holdCache struct {
	cache.Cache
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *holdCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	first := false
	c.once.Do(func() { first = true })
	if first {
		close(c.entered)
		<-c.release
	}
	return c.Cache.Set(ctx, key, val, ttl)
}

func TestReadAfterWriteSkipsInFlightQuery(t *testing.T) {
	ctx := context.Background()
	hc := &holdCache{Cache: cache.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	r := New(testutil.NewTestDB(t), hc, snowflake.MustNew(1), 0)

	stale := make(chan []biz.FontVariant, 1)
	go func() {
		list, err := r.All(ctx)
		assert.NoError(t, err)
		stale <- list
	}()
	<-hc.entered

	_, err := r.Insert(ctx, variant("Roboto", "400", "normal", "roboto/r.woff2"))
	require.NoError(t, err)

	fresh := make(chan []biz.FontVariant, 1)
	go func() {
		list, err := r.All(ctx)
		assert.NoError(t, err)
		fresh <- list
	}()
	select {
	case list := <-fresh:
		assert.Equal(t, []string{"Roboto-400normal"}, names(list))
	case <-time.After(5 * time.Second):
		t.Fatal("read after insert joined the earlier query")
	}

	close(hc.release)
	assert.Empty(t, <-stale)
	list, err := r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGroupBySlug(t *testing.T) {
	a := *variant("Open Sans", "400", "normal", "open-sans/r.woff2")
	a.FamilySlug = "open-sans"
	b := *variant("Roboto", "400", "normal", "roboto/r.woff2")
	c := *variant("open sans", "700", "normal", "open-sans/b.woff2")

	families := Group([]biz.FontVariant{a, b, c})
	require.Len(t, families, 2)
	assert.Equal(t, "Open Sans", families[0].Name)
	assert.Equal(t, "open-sans", families[0].Slug)
	assert.Len(t, families[0].Variants, 2)
	assert.Equal(t, "roboto", families[1].Slug)
}
