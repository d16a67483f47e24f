// Package upgrade brings an older installation up to the current data
// version: schema migrations first, then ordered data steps gated by the
// version marker in the options table.
//
// Steps re-check the real state before changing anything, so a partially
// applied upgrade can simply be run again. The coordinator is meant to run
// at startup or from the CLI while nothing else writes to the registry; it
// takes no locks.
package upgrade

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"xorm.io/xorm"

	"github.com/chrmrtns/safefonts/biz"
	"github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/pkg/fontcheck"
	"github.com/chrmrtns/safefonts/pkg/fontcss"
	"github.com/chrmrtns/safefonts/pkg/logx"
	"github.com/chrmrtns/safefonts/pkg/slug"
)

const table = "safefonts_fonts"

type StepResult struct {
	Name    string `json:"name"`
	Changed int    `json:"changed"`
	Skipped int    `json:"skipped"`
}

type Report struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Ran   bool         `json:"ran"`
	Steps []StepResult `json:"steps"`
}

type Coordinator struct {
	DB    *xorm.Engine
	Fonts *fonts.Service
	// LegacyDir 旧版本的字体目录, 其中的字体文件平铺复制到资源根目录
	LegacyDir string
	// Migrate 应用表结构迁移, 为空时跳过
	Migrate func() error

	log *logrus.Entry
}

func New(db *xorm.Engine, svc *fonts.Service, legacyDir string, migrate func() error) *Coordinator {
	return &Coordinator{
		DB:        db,
		Fonts:     svc,
		LegacyDir: legacyDir,
		Migrate:   migrate,
		log:       logrus.WithField("module", "upgrade"),
	}
}

type step struct {
	name string
	run  func(ctx context.Context) (changed, skipped int, err error)
}

func (c *Coordinator) steps() []step {
	return []step{
		{"family-slug", c.familySlug},
		{"legacy-import", c.legacyImport},
		{"family-folders", c.familyFolders},
		{"preload-ids", c.preloadIDs},
	}
}

// RunIfNeeded 已安装版本低于 current 时执行全部步骤并写入新版本号
func (c *Coordinator) RunIfNeeded(ctx context.Context, current string) (*Report, error) {
	log := logx.LoggerWith(ctx, c.log)

	to, err := semver.NewVersion(current)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid version %q", current)
	}
	if c.Migrate != nil {
		if err := c.Migrate(); err != nil {
			return nil, err
		}
	}

	installed, err := c.Fonts.Settings.Version(ctx)
	if err != nil {
		return nil, err
	}
	from := parseInstalled(installed)
	report := &Report{From: from.String(), To: to.String(), Steps: []StepResult{}}
	if !from.LessThan(to) {
		log.Debugf("data version %s is current", from)
		return report, nil
	}

	log.Infof("upgrading data %s -> %s", from, to)
	report.Ran = true
	for _, st := range c.steps() {
		changed, skipped, err := st.run(ctx)
		report.Steps = append(report.Steps, StepResult{Name: st.name, Changed: changed, Skipped: skipped})
		if err != nil {
			return report, errors.Wrapf(err, "upgrade step %s", st.name)
		}
		if changed > 0 {
			c.Fonts.Registry.InvalidateCache(ctx)
		}
		log.WithField("step", st.name).Infof("changed %d, skipped %d", changed, skipped)
	}

	c.Fonts.Registry.InvalidateCache(ctx)
	if err := c.Fonts.Regenerate(ctx); err != nil {
		return report, err
	}
	if err := c.Fonts.Settings.SetVersion(ctx, to.String()); err != nil {
		return report, err
	}
	return report, nil
}

// parseInstalled 缺失或无法解析的版本视为 0.0.0
func parseInstalled(v string) *semver.Version {
	if v = strings.TrimSpace(v); v != "" {
		if parsed, err := semver.NewVersion(v); err == nil {
			return parsed
		}
		logrus.WithField("module", "upgrade").Warnf("unparsable installed version %q, treating as 0.0.0", v)
	}
	return semver.New(0, 0, 0, "", "")
}

// familySlug 补齐 family_slug 列和索引, 再回填空值
func (c *Coordinator) familySlug(ctx context.Context) (int, int, error) {
	dialect, queryer := c.DB.Dialect(), c.DB.DB()
	exists, err := dialect.IsTableExist(queryer, ctx, table)
	if err != nil {
		return 0, 0, errors.Wrap(err, "read database metadata")
	}
	if !exists {
		return 0, 0, errors.Errorf("table %s does not exist", table)
	}
	_, columns, err := dialect.GetColumns(queryer, ctx, table)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "read columns of %s", table)
	}
	indexes, err := dialect.GetIndexes(queryer, ctx, table)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "read indexes of %s", table)
	}
	_, hasColumn := columns["family_slug"]
	hasIndex := false
	for name, idx := range indexes {
		if strings.Contains(name, "family_slug") || (len(idx.Cols) > 0 && idx.Cols[0] == "family_slug") {
			hasIndex = true
		}
	}
	if !hasColumn {
		if _, err := c.DB.Exec("ALTER TABLE " + table + " ADD COLUMN family_slug VARCHAR(255) NOT NULL DEFAULT ''"); err != nil {
			return 0, 0, errors.Wrap(err, "add family_slug column")
		}
	}
	if !hasIndex {
		if _, err := c.DB.Exec("CREATE INDEX idx_safefonts_fonts_family_slug ON " + table + " (family_slug)"); err != nil {
			return 0, 0, errors.Wrap(err, "create family_slug index")
		}
	}

	list, err := c.Fonts.Registry.MissingSlugVariants(ctx)
	if err != nil {
		return 0, 0, err
	}
	n := 0
	for _, v := range list {
		if err := c.Fonts.Registry.UpdateSlug(ctx, v.ID, slug.Make(v.FontFamily)); err != nil {
			return n, 0, err
		}
		n++
	}
	return n, 0, nil
}

// legacyImport 把旧目录中的字体文件复制到资源根目录, 不覆盖已有文件
func (c *Coordinator) legacyImport(ctx context.Context) (int, int, error) {
	if c.LegacyDir == "" {
		return 0, 0, nil
	}
	log := logx.LoggerWith(ctx, c.log).WithField("dir", c.LegacyDir)

	entries, err := os.ReadDir(c.LegacyDir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, errors.Wrapf(err, "read legacy dir %s", c.LegacyDir)
	}

	migrated, err := c.migratedNames(ctx)
	if err != nil {
		return 0, 0, err
	}

	store := c.Fonts.Store
	changed, skipped := 0, 0
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !fontcheck.KnownExtension(fontcheck.Extension(name)) {
			continue
		}
		if migrated[name] {
			skipped++
			continue
		}
		f, err := os.Open(filepath.Join(c.LegacyDir, name))
		if err != nil {
			log.WithError(err).Warnf("skip legacy file %s", name)
			skipped++
			continue
		}
		err = store.Put(ctx, name, f)
		f.Close()
		switch {
		case errors.Is(err, fs.ErrExist):
			skipped++
		case err != nil:
			log.WithError(err).Warnf("copy legacy file %s", name)
			skipped++
		default:
			changed++
		}
	}
	return changed, skipped, nil
}

// migratedNames 已经在家族目录中存在的文件名
func (c *Coordinator) migratedNames(ctx context.Context) (map[string]bool, error) {
	list, err := c.Fonts.Registry.All(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for _, v := range list {
		if !strings.Contains(v.FilePath, "/") {
			continue
		}
		if ok, err := c.Fonts.Store.Exists(ctx, v.FilePath); err == nil && ok {
			out[path.Base(v.FilePath)] = true
		}
	}
	return out, nil
}

// familyFolders 把平铺存放的文件移动到 {slug}/{name}, 单条失败跳过
func (c *Coordinator) familyFolders(ctx context.Context) (int, int, error) {
	log := logx.LoggerWith(ctx, c.log)
	store := c.Fonts.Store

	list, err := c.Fonts.Registry.FlatPathVariants(ctx)
	if err != nil {
		return 0, 0, err
	}
	changed, skipped := 0, 0
	for _, v := range list {
		log := log.WithField("id", v.ID).WithField("path", v.FilePath)
		familySlug := v.FamilySlug
		if familySlug == "" {
			familySlug = slug.Make(v.FontFamily)
		}
		to := familySlug + "/" + v.FilePath

		fromOK, err := store.Exists(ctx, v.FilePath)
		if err != nil {
			log.WithError(err).Warn("skip: cannot check source")
			skipped++
			continue
		}
		toOK, err := store.Exists(ctx, to)
		if err != nil {
			log.WithError(err).Warn("skip: cannot check target")
			skipped++
			continue
		}

		switch {
		case fromOK && !toOK:
			if err := store.Move(ctx, v.FilePath, to); err != nil {
				log.WithError(err).Warn("skip: move failed")
				skipped++
				continue
			}
		case !fromOK && toOK:
			// 上次已移动但记录未更新
		default:
			log.Warnf("skip: source exists=%v, target exists=%v", fromOK, toOK)
			skipped++
			continue
		}

		if err := c.Fonts.Registry.UpdateLocation(ctx, v.ID, to, familySlug); err != nil {
			log.WithError(err).Warn("skip: update row failed")
			skipped++
			continue
		}
		changed++
	}
	return changed, skipped, nil
}

// preloadIDs 旧格式的 family 名展开为 family-weight[italic]
func (c *Coordinator) preloadIDs(ctx context.Context) (int, int, error) {
	set, err := c.Fonts.Settings.Load(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(set.PreloadFonts) == 0 {
		return 0, 0, nil
	}
	list, err := c.Fonts.Registry.All(ctx)
	if err != nil {
		return 0, 0, err
	}
	ids, changed := fontcss.MigratePreloadIDs(set.PreloadFonts, biz.Faces(list))
	if !changed {
		return 0, 0, nil
	}
	set.PreloadFonts = ids
	if err := c.Fonts.Settings.Save(ctx, set); err != nil {
		return 0, 0, err
	}
	return 1, 0, nil
}
