package cmd

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/chrmrtns/safefonts/biz/registry"
	"github.com/chrmrtns/safefonts/pkg/assets"
	"github.com/chrmrtns/safefonts/pkg/cache"
	"github.com/chrmrtns/safefonts/pkg/env"
	"github.com/chrmrtns/safefonts/pkg/orm"
)

// config 启动时从环境变量 (及 .env) 读取一次
type config struct {
	DBDriver string `validate:"oneof=sqlite sqlite3 mysql pgx postgres"`
	DBURL    string `validate:"required"`

	AssetDriver      string `validate:"oneof=local s3"`
	AssetDir         string `validate:"required_if=AssetDriver local"`
	AssetURL         string `validate:"required"`
	AssetPlaceholder string

	S3 assets.S3Config

	Redis    cache.RedisConfig
	CacheTTL time.Duration `validate:"gte=0"`

	LegacyDir string

	Host      string
	Port      int `validate:"min=1,max=65535"`
	BodyLimit string
	RateLimit float64 `validate:"gte=0"`
	HostID    int64   `validate:"min=0,max=1023"`

	LogDir    string
	LogLevel  string `validate:"omitempty,oneof=trace debug info warn warning error"`
	SentryDSN string
}

func loadConfig() (*config, error) {
	env.Load()

	driver := env.String("DB_DRIVER", "sqlite")
	dbURL := env.String("DB_URL", "")
	if dbURL == "" && orm.Dialect(driver) == "sqlite" {
		dbURL = env.DirPath("DB_FILE", "./safefonts.db")
	}

	assetDriver := env.String("ASSET_DRIVER", "local")
	assetURL := env.String("ASSET_URL", "/fonts")
	if assetDriver == "s3" {
		assetURL = env.String("S3_PUBLIC_URL", assetURL)
	}

	cfg := &config{
		DBDriver: driver,
		DBURL:    dbURL,

		AssetDriver:      assetDriver,
		AssetDir:         env.DirPath("ASSET_DIR", "./fonts"),
		AssetURL:         assetURL,
		AssetPlaceholder: env.String("ASSET_PLACEHOLDER", "index.html"),

		S3: assets.S3Config{
			Bucket:    env.String("S3_BUCKET", ""),
			Region:    env.String("S3_REGION", "us-east-1"),
			Endpoint:  env.String("S3_ENDPOINT", ""),
			Prefix:    env.String("S3_PREFIX", "fonts/"),
			AccessKey: env.String("S3_ACCESS_KEY", ""),
			SecretKey: env.String("S3_SECRET_KEY", ""),
		},

		Redis: cache.RedisConfig{
			Addr:     env.String("REDIS_ADDR", ""),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
			Prefix:   env.String("REDIS_PREFIX", "safefonts:"),
		},
		CacheTTL: env.Duration("CACHE_TTL", registry.DefaultTTL),

		LegacyDir: env.String("LEGACY_FONT_DIR", ""),

		Host:      env.String("HOST", ""),
		Port:      env.Int("PORT", 4444),
		BodyLimit: env.String("BODY_LIMIT", "10M"),
		RateLimit: float64(env.Int("RATE_LIMIT", 20)),
		HostID:    env.Int64("HOST_ID", 1),

		LogDir:    env.String("LOG_DIR", ""),
		LogLevel:  env.String("LOG_LEVEL", "info"),
		SentryDSN: env.String("SENTRY_DSN", ""),
	}
	if cfg.LogDir != "" {
		cfg.LogDir = env.DirPath("LOG_DIR", "")
	}
	if cfg.LegacyDir != "" {
		cfg.LegacyDir = env.DirPath("LEGACY_FONT_DIR", "")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if cfg.AssetDriver == "s3" && cfg.S3.Bucket == "" {
		return nil, errors.New("invalid configuration: S3_BUCKET is required when ASSET_DRIVER=s3")
	}
	return cfg, nil
}
