package orm

import (
	"context"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
	"xorm.io/xorm"
	"xorm.io/xorm/names"
)

var xlog = logrus.WithField("module", "orm")

// Dialect 归一化驱动名, 用于选择迁移脚本
//
//	sqlite, sqlite3 -> sqlite
//	mysql           -> mysql
//	pgx, postgres   -> postgres
func Dialect(driver string) string {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mysql":
		return "mysql"
	case "pgx", "postgres", "postgresql":
		return "postgres"
	}
	return ""
}

// SQLDriver 返回 database/sql 注册的驱动名
func SQLDriver(driver string) string {
	switch Dialect(driver) {
	case "postgres":
		return "pgx"
	case "sqlite":
		if strings.ToLower(driver) == "sqlite3" {
			return "sqlite3" // mattn, 需要 cgo
		}
		return "sqlite"
	}
	return strings.ToLower(driver)
}

// NewXormEngine 创建并检测数据库连接, 由调用方负责 Close
func NewXormEngine(dbDriver, dbUrl string) (*xorm.Engine, error) {
	if Dialect(dbDriver) == "" {
		return nil, errors.Errorf("unsupported DB_DRIVER %q", dbDriver)
	}
	engine, err := xorm.NewEngine(SQLDriver(dbDriver), dbUrl)
	if err != nil {
		return nil, errors.Wrap(err, "xorm engine init")
	}

	// 全部采用 UTC 时区
	engine.TZLocation = time.UTC
	engine.DatabaseTZ = time.UTC

	engine.SetMapper(names.GonicMapper{})
	engine.SetMaxOpenConns(10)
	if Dialect(dbDriver) == "sqlite" {
		// sqlite 写锁是库级别的
		engine.SetMaxOpenConns(1)
	}

	if _, err := engine.Query("select 1"); err != nil {
		engine.Close()
		return nil, errors.Wrap(err, "database ping")
	}

	engine.SetLogger(NewXormLogrus(xlog))
	engine.ShowSQL(true)
	xlog.Infof("database ready: DB_DRIVER = %s", dbDriver)
	return engine, nil
}

// Session 返回绑定 ctx 的 session, 调用方负责 Close
func Session(ctx context.Context, engine *xorm.Engine) *xorm.Session {
	sess := engine.NewSession()
	sess.Context(ctx)
	return sess
}
