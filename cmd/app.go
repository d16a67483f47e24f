package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"xorm.io/xorm"

	"github.com/chrmrtns/safefonts/biz"
	"github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/biz/registry"
	"github.com/chrmrtns/safefonts/biz/schema"
	"github.com/chrmrtns/safefonts/biz/settings"
	"github.com/chrmrtns/safefonts/biz/upgrade"
	"github.com/chrmrtns/safefonts/pkg/assets"
	"github.com/chrmrtns/safefonts/pkg/cache"
	"github.com/chrmrtns/safefonts/pkg/env"
	"github.com/chrmrtns/safefonts/pkg/fontcss"
	"github.com/chrmrtns/safefonts/pkg/log"
	"github.com/chrmrtns/safefonts/pkg/orm"
	"github.com/chrmrtns/safefonts/pkg/snowflake"
)

var xlog = logrus.WithField("module", "cmd")

// app 一次命令执行所需的全部组件
type app struct {
	cfg     *config
	db      *xorm.Engine
	ids     *snowflake.Generator
	fonts   *fonts.Service
	upgrade *upgrade.Coordinator

	closers []func() error
}

func initLog(cfg *config) error {
	return log.Init(log.Options{
		Dir:       cfg.LogDir,
		Level:     cfg.LogLevel,
		Terminal:  env.IsDev() || cfg.LogDir == "",
		SentryDSN: cfg.SentryDSN,
		Env:       env.String("ENV", "production"),
	})
}

func newApp(ctx context.Context, cfg *config) (*app, error) {
	a := &app{cfg: cfg}

	ids, err := snowflake.New(cfg.HostID)
	if err != nil {
		return nil, err
	}
	a.ids = ids

	db, err := orm.NewXormEngine(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	var c cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		r := cache.NewRedis(cfg.Redis)
		if err := r.Ping(ctx); err != nil {
			a.Close()
			return nil, errors.Wrapf(err, "redis %s", cfg.Redis.Addr)
		}
		c = r
		a.closers = append(a.closers, r.Close)
	}

	var store assets.Store
	switch cfg.AssetDriver {
	case "s3":
		store, err = assets.NewS3Store(ctx, cfg.S3)
	default:
		store, err = assets.NewLocalFS(cfg.AssetDir, cfg.AssetPlaceholder)
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	reg := registry.New(db, c, ids, cfg.CacheTTL)
	a.fonts = fonts.NewService(reg, store, settings.New(db), fontcss.NewGenerator(cfg.AssetURL))
	a.upgrade = upgrade.New(db, a.fonts, cfg.LegacyDir, func() error {
		return schema.Up(cfg.DBDriver, cfg.DBURL)
	})
	return a, nil
}

// prepare 迁移表结构并执行数据升级, 所有读写字体数据的命令先调用
func (a *app) prepare(ctx context.Context) (*upgrade.Report, error) {
	report, err := a.upgrade.RunIfNeeded(ctx, biz.Version)
	if err != nil {
		return report, err
	}
	if report.Ran {
		xlog.Infof("data upgraded %s -> %s", report.From, report.To)
	}
	return report, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			xlog.WithError(err).Warn("close")
		}
	}
	a.closers = nil
}

// withApp 加载配置, 初始化日志和组件, 执行 fn 后释放
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLog(cfg); err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
