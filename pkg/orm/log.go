package orm

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"xorm.io/xorm/log"
)

// 将 xorm 的日志适配到 logrus
type XormLogrus struct {
	logger *logrus.Entry
}

var _ log.ContextLogger = &XormLogrus{}

func NewXormLogrus(logger *logrus.Entry) *XormLogrus {
	return &XormLogrus{logger: logger}
}

func (x *XormLogrus) BeforeSQL(ctx log.LogContext) {
}

// only invoked when IsShowSQL is true
func (x *XormLogrus) AfterSQL(ctx log.LogContext) {
	reqid := GetReqID(ctx.Ctx)
	if reqid == SkipLogSQL {
		return
	}

	const maxContentLength = 100
	args := make([]any, len(ctx.Args))
	for i, arg := range ctx.Args {
		s := fmt.Sprintf("%v", arg)
		if len(s) > maxContentLength {
			s = s[:maxContentLength] + "..."
		}
		args[i] = s
	}

	entry := x.logger.WithField("reqid", reqid)
	if ctx.Err != nil {
		entry.WithError(ctx.Err).Warnf("[SQL] %v %v - %v", ctx.SQL, args, ctx.ExecuteTime)
		return
	}
	entry.Debugf("[SQL] %v %v - %v", ctx.SQL, args, ctx.ExecuteTime)
}

func (x *XormLogrus) Debug(v ...any)                 { x.logger.Debug(v...) }
func (x *XormLogrus) Debugf(format string, v ...any) { x.logger.Debugf(format, v...) }
func (x *XormLogrus) Error(v ...any)                 { x.logger.Error(v...) }
func (x *XormLogrus) Errorf(format string, v ...any) { x.logger.Errorf(format, v...) }
func (x *XormLogrus) Info(v ...any)                  { x.logger.Info(v...) }
func (x *XormLogrus) Infof(format string, v ...any)  { x.logger.Infof(format, v...) }
func (x *XormLogrus) Warn(v ...any)                  { x.logger.Warn(v...) }
func (x *XormLogrus) Warnf(format string, v ...any)  { x.logger.Warnf(format, v...) }

func (x *XormLogrus) Level() log.LogLevel {
	switch x.logger.Logger.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return log.LOG_DEBUG
	case logrus.InfoLevel:
		return log.LOG_INFO
	case logrus.WarnLevel:
		return log.LOG_WARNING
	case logrus.ErrorLevel:
		return log.LOG_ERR
	default:
		return log.LOG_OFF
	}
}

// SetLevel 由 logrus 全局级别控制, 这里忽略
func (x *XormLogrus) SetLevel(l log.LogLevel) {}

func (x *XormLogrus) ShowSQL(show ...bool) {}

func (x *XormLogrus) IsShowSQL() bool {
	return true
}
