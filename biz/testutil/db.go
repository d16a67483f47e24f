// Package testutil 测试用的数据库和字体样本
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"xorm.io/xorm"

	"github.com/chrmrtns/safefonts/biz/schema"
	"github.com/chrmrtns/safefonts/pkg/orm"
)

// NewTestDB 创建临时 sqlite 数据库并执行全部迁移, 测试结束自动关闭
func NewTestDB(t testing.TB) *xorm.Engine {
	t.Helper()
	engine, _ := NewTestDBPath(t)
	return engine
}

// NewTestDBPath 同 NewTestDB, 并返回数据库文件路径 (供 schema 迁移使用)
func NewTestDBPath(t testing.TB) (*xorm.Engine, string) {
	t.Helper()

	// 影响定位失败用例; 保留 warning/error 即可
	logrus.SetLevel(logrus.WarnLevel)

	path := filepath.Join(t.TempDir(), "safefonts.db")
	require.NoError(t, schema.Up("sqlite", path))

	engine, err := orm.NewXormEngine("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine, path
}
