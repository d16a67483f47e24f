// Package schema applies the embedded SQL migrations with golang-migrate.
package schema

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	pgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chrmrtns/safefonts/pkg/orm"
)

//go:embed migrations
var migrations embed.FS

var xlog = logrus.WithField("module", "schema")

// Migrator 包装 migrate.Migrate; 使用独立的 *sql.DB, Close 时一并关闭
type Migrator struct {
	m       *migrate.Migrate
	dialect string
}

// Open 打开迁移实例. 注意 migrate 会接管并关闭传入的连接,
// 所以这里不复用 xorm 的连接池.
func Open(driver, url string) (*Migrator, error) {
	dialect := orm.Dialect(driver)
	if dialect == "" {
		return nil, errors.Errorf("unsupported DB_DRIVER %q", driver)
	}

	src, err := iofs.New(migrations, "migrations/"+dialect)
	if err != nil {
		return nil, errors.Wrap(err, "load embedded migrations")
	}

	db, err := sql.Open(orm.SQLDriver(driver), url)
	if err != nil {
		return nil, errors.Wrap(err, "open database for migrations")
	}

	var drv database.Driver
	switch dialect {
	case "sqlite":
		drv, err = sqlite.WithInstance(db, &sqlite.Config{})
	case "mysql":
		drv, err = mysql.WithInstance(db, &mysql.Config{})
	case "postgres":
		drv, err = pgx.WithInstance(db, &pgx.Config{})
	}
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "init %s migration driver", dialect)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, drv)
	if err != nil {
		drv.Close()
		return nil, errors.Wrap(err, "create migrate instance")
	}
	return &Migrator{m: m, dialect: dialect}, nil
}

// Up 应用全部迁移, 已是最新版本时不报错
func (x *Migrator) Up() error {
	err := x.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return errors.Wrap(err, "migrate up")
}

// Steps n > 0 向上, n < 0 向下
func (x *Migrator) Steps(n int) error {
	return errors.Wrapf(x.m.Steps(n), "migrate %d steps", n)
}

// Down 回滚全部迁移 (删除所有表)
func (x *Migrator) Down() error {
	err := x.m.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return errors.Wrap(err, "migrate down")
}

func (x *Migrator) Force(version int) error {
	return errors.Wrapf(x.m.Force(version), "force version %d", version)
}

// Status 返回当前版本; 尚未迁移时 version 为 0
func (x *Migrator) Status() (version uint, dirty bool, err error) {
	version, dirty, err = x.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, errors.Wrap(err, "read migration version")
}

func (x *Migrator) Close() error {
	srcErr, dbErr := x.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

// Up 打开, 迁移, 关闭
func Up(driver, url string) error {
	x, err := Open(driver, url)
	if err != nil {
		return err
	}
	defer x.Close()

	before, _, _ := x.Status()
	if err := x.Up(); err != nil {
		return err
	}
	after, _, _ := x.Status()
	if after != before {
		xlog.Infof("schema migrated %s: %d -> %d", x.dialect, before, after)
	}
	return nil
}

// Down 删除全部表, 用于 purge
func Down(driver, url string) error {
	x, err := Open(driver, url)
	if err != nil {
		return err
	}
	defer x.Close()
	return x.Down()
}

func (x *Migrator) String() string {
	v, dirty, err := x.Status()
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("%s version %d (dirty=%v)", x.dialect, v, dirty)
}
