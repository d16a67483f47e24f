package logx

import (
	"context"

	"github.com/chrmrtns/safefonts/pkg/orm"
	"github.com/sirupsen/logrus"
)

// LoggerWith attach reqid
func LoggerWith(ctx context.Context, logger *logrus.Entry) *logrus.Entry {
	if reqid := orm.GetReqID(ctx); reqid != "" {
		return logger.WithField("reqid", reqid)
	}
	return logger
}

// Logger 在 echo handler 外部使用
func Logger(ctx context.Context) *logrus.Entry {
	return logrus.WithField("reqid", orm.GetReqID(ctx))
}
