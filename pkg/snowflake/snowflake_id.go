package snowflake

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

// Generator 分布式雪花ID, 每个进程一个节点号 (HOST_ID)
type Generator struct {
	node *snowflake.Node
}

func New(hostID int64) (*Generator, error) {
	node, err := snowflake.NewNode(hostID)
	if err != nil {
		return nil, errors.Wrapf(err, "snowflake node %d", hostID)
	}
	return &Generator{node: node}, nil
}

func MustNew(hostID int64) *Generator {
	g, err := New(hostID)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

// IdDatetime 根据 snowflake-id 反算创建时间 (毫秒精度)
func IdDatetime(id int64) time.Time {
	ms := snowflake.ParseInt64(id).Time()
	return time.UnixMilli(ms)
}
