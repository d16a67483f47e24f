package orm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xorm.io/xorm/log"
)

func TestXormLogrusAfterSQL(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	x := NewXormLogrus(logrus.NewEntry(logger))

	ctx := WithReqID(context.Background(), "W42")
	x.AfterSQL(log.LogContext{
		Ctx:         ctx,
		SQL:         "SELECT * FROM safefonts_fonts WHERE id = ?",
		Args:        []any{strings.Repeat("a", 150)},
		ExecuteTime: time.Millisecond,
	})

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "W42", entry.Data["reqid"])
	assert.Contains(t, entry.Message, strings.Repeat("a", 100)+"...")
	assert.NotContains(t, entry.Message, strings.Repeat("a", 101))

	hook.Reset()
	x.AfterSQL(log.LogContext{Ctx: WithReqID(context.Background(), SkipLogSQL), SQL: "select 1"})
	assert.Empty(t, hook.Entries)
}
