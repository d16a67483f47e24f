// Package registry is the metadata store of uploaded font variants with a
// read-through cache of the full, ordered list.
package registry

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"xorm.io/builder"
	"xorm.io/xorm"

	"github.com/chrmrtns/safefonts/biz"
	"github.com/chrmrtns/safefonts/pkg/cache"
	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/logx"
	"github.com/chrmrtns/safefonts/pkg/slug"
	"github.com/chrmrtns/safefonts/pkg/snowflake"
)

const DefaultTTL = 12 * time.Hour

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CacheKey 带版本号, 升级后旧缓存自然失效
func CacheKey() string {
	return "safefonts_fonts_list_v" + biz.Version
}

// Family 同一字体族的全部变体
type Family struct {
	Name     string            `json:"name"`
	Slug     string            `json:"slug"`
	Variants []biz.FontVariant `json:"variants"`
}

type Registry struct {
	db    *xorm.Engine
	cache cache.Cache
	ttl   time.Duration
	ids   *snowflake.Generator

	group singleflight.Group
	// 每次写入/删除递增; 读取方据此判断查询结果是否已过期
	gen atomic.Uint64
	log *logrus.Entry
}

// New ttl <= 0 时使用 DefaultTTL
func New(db *xorm.Engine, c cache.Cache, ids *snowflake.Generator, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		db:    db,
		cache: c,
		ttl:   ttl,
		ids:   ids,
		log:   logrus.WithField("module", "registry"),
	}
}

// Insert 分配 id 并写入一行, 成功后使缓存失效
func (r *Registry) Insert(ctx context.Context, v *biz.FontVariant) (int64, error) {
	if v.FamilySlug == "" {
		v.FamilySlug = slug.Make(v.FontFamily)
	}
	if v.FontStyle == "" {
		v.FontStyle = "normal"
	}
	if v.FontWeight == "" {
		v.FontWeight = "400"
	}
	v.ID = r.ids.Next()

	if _, err := r.db.Context(ctx).Insert(v); err != nil {
		return 0, fonterr.Wrap(err, fonterr.RegistryInsertFailed, "Failed to save font metadata to database")
	}
	r.InvalidateCache(ctx)
	return v.ID, nil
}

// Get 不经过缓存
func (r *Registry) Get(ctx context.Context, id int64) (*biz.FontVariant, error) {
	var v biz.FontVariant
	has, err := r.db.Context(ctx).ID(id).Get(&v)
	if err != nil {
		return nil, errors.Wrapf(err, "get font %d", id)
	}
	if !has {
		return nil, fonterr.New(fonterr.RecordNotFound, "Font not found")
	}
	return &v, nil
}

// Delete 返回是否删除了记录
func (r *Registry) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := r.db.Context(ctx).ID(id).Delete(new(biz.FontVariant))
	if err != nil {
		return false, errors.Wrapf(err, "delete font %d", id)
	}
	if n > 0 {
		r.InvalidateCache(ctx)
	}
	return n > 0, nil
}

// All 按 family, weight, id 排序的全部记录
func (r *Registry) All(ctx context.Context) ([]biz.FontVariant, error) {
	log := logx.LoggerWith(ctx, r.log)
	key := CacheKey()

	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("font list cache read failed")
	} else if ok {
		var list []biz.FontVariant
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
		log.Warn("font list cache entry is corrupt, reloading")
	}

	// 写入之后发起的读取不与之前的查询合并
	gen := r.gen.Load()
	flight := key + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := r.group.Do(flight, func() (any, error) {
		// 共享查询不随单个调用方取消
		qctx := context.WithoutCancel(ctx)
		list, err := r.query(qctx)
		if err != nil {
			return nil, err
		}
		r.populate(qctx, key, gen, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]biz.FontVariant)
	return append([]biz.FontVariant(nil), shared...), nil
}

// populate 写缓存; 若期间发生过写入则放弃或撤销
func (r *Registry) populate(ctx context.Context, key string, gen uint64, list []biz.FontVariant) {
	if r.gen.Load() != gen {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		r.log.WithError(err).Warn("encode font list")
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		r.log.WithError(err).Warn("font list cache write failed")
		return
	}
	if r.gen.Load() != gen {
		_ = r.cache.Delete(ctx, key)
	}
}

func (r *Registry) query(ctx context.Context) ([]biz.FontVariant, error) {
	list := make([]biz.FontVariant, 0)
	err := r.db.Context(ctx).
		OrderBy("font_family ASC, font_weight ASC, id ASC").
		Find(&list)
	if err != nil {
		return nil, errors.Wrap(err, "list fonts")
	}
	return list, nil
}

// GroupedByFamily 保持 All 的顺序
func (r *Registry) GroupedByFamily(ctx context.Context) ([]Family, error) {
	list, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return Group(list), nil
}

// Group 按 slug 分组, 目录/CSS class/变量都以 slug 为键;
// "Open Sans" 与 "open sans" 归为一组, 名称取最先出现的写法
func Group(list []biz.FontVariant) []Family {
	out := make([]Family, 0)
	index := map[string]int{}
	for _, v := range list {
		s := v.FamilySlug
		if s == "" {
			s = slug.Make(v.FontFamily)
		}
		i, ok := index[s]
		if !ok {
			i = len(out)
			index[s] = i
			out = append(out, Family{Name: v.FontFamily, Slug: s})
		}
		out[i].Variants = append(out[i].Variants, v)
	}
	return out
}

func (r *Registry) InvalidateCache(ctx context.Context) {
	r.gen.Add(1)
	if err := r.cache.Delete(ctx, CacheKey()); err != nil {
		logx.LoggerWith(ctx, r.log).WithError(err).Warn("font list cache invalidation failed")
	}
}

func (r *Registry) Count(ctx context.Context) (int64, error) {
	n, err := r.db.Context(ctx).Count(new(biz.FontVariant))
	return n, errors.Wrap(err, "count fonts")
}

// FlatPathVariants 旧版本平铺存放 (路径中没有目录) 的记录
func (r *Registry) FlatPathVariants(ctx context.Context) ([]biz.FontVariant, error) {
	list := make([]biz.FontVariant, 0)
	err := r.db.Context(ctx).
		Where(builder.Not{builder.Like{"file_path", "/"}}).
		OrderBy("id ASC").
		Find(&list)
	return list, errors.Wrap(err, "list flat fonts")
}

// MissingSlugVariants family_slug 为空的记录
func (r *Registry) MissingSlugVariants(ctx context.Context) ([]biz.FontVariant, error) {
	list := make([]biz.FontVariant, 0)
	err := r.db.Context(ctx).
		Where(builder.Eq{"family_slug": ""}.Or(builder.IsNull{"family_slug"})).
		OrderBy("id ASC").
		Find(&list)
	return list, errors.Wrap(err, "list fonts without slug")
}

// UpdateLocation 迁移文件后更新路径和目录名, 不主动失效缓存
func (r *Registry) UpdateLocation(ctx context.Context, id int64, filePath, familySlug string) error {
	_, err := r.db.Context(ctx).ID(id).
		Cols("file_path", "family_slug").
		Update(&biz.FontVariant{FilePath: filePath, FamilySlug: familySlug})
	return errors.Wrapf(err, "update location of font %d", id)
}

func (r *Registry) UpdateSlug(ctx context.Context, id int64, familySlug string) error {
	_, err := r.db.Context(ctx).ID(id).
		Cols("family_slug").
		Update(&biz.FontVariant{FamilySlug: familySlug})
	return errors.Wrapf(err, "update slug of font %d", id)
}
