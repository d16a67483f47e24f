package serve

import (
	"io"

	echoLog "github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
)

// customLogger 将 echo.Logger 适配到 logrus
type customLogger struct {
	Logger *logrus.Entry
}

func newLogger(entry *logrus.Entry) *customLogger {
	return &customLogger{Logger: entry}
}

func (l *customLogger) Output() io.Writer {
	return l.Logger.Writer()
}

func (l *customLogger) SetOutput(w io.Writer) {
	// 输出由 logrus 决定
}

func (l *customLogger) Prefix() string {
	return ""
}

func (l *customLogger) SetPrefix(p string) {}

func (l *customLogger) Level() echoLog.Lvl {
	return echoLevel(l.Logger.Logger.GetLevel())
}

func (l *customLogger) SetLevel(v echoLog.Lvl) {}

func (l *customLogger) SetHeader(h string) {}

func echoLevel(level logrus.Level) echoLog.Lvl {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return echoLog.DEBUG
	case logrus.InfoLevel:
		return echoLog.INFO
	case logrus.WarnLevel:
		return echoLog.WARN
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return echoLog.ERROR
	}
	return echoLog.INFO
}

func (l *customLogger) Debug(i ...interface{}) { l.Logger.Debug(i...) }

func (l *customLogger) Debugf(format string, args ...interface{}) { l.Logger.Debugf(format, args...) }

func (l *customLogger) Info(i ...interface{}) { l.Logger.Info(i...) }

func (l *customLogger) Infof(format string, args ...interface{}) { l.Logger.Infof(format, args...) }

func (l *customLogger) Warn(i ...interface{}) { l.Logger.Warn(i...) }

func (l *customLogger) Warnf(format string, args ...interface{}) { l.Logger.Warnf(format, args...) }

func (l *customLogger) Error(i ...interface{}) { l.Logger.Error(i...) }

func (l *customLogger) Errorf(format string, args ...interface{}) { l.Logger.Errorf(format, args...) }

func (l *customLogger) Fatal(i ...interface{}) { l.Logger.Fatal(i...) }

func (l *customLogger) Fatalf(format string, args ...interface{}) { l.Logger.Fatalf(format, args...) }

func (l *customLogger) Panic(i ...interface{}) { l.Logger.Panic(i...) }

func (l *customLogger) Panicf(format string, args ...interface{}) { l.Logger.Panicf(format, args...) }

func (l *customLogger) Print(i ...interface{}) { l.Logger.Info(i...) }

func (l *customLogger) Printf(format string, args ...interface{}) { l.Logger.Infof(format, args...) }

func (l *customLogger) Debugj(j echoLog.JSON) { l.Logger.WithFields(logrus.Fields(j)).Debug() }

func (l *customLogger) Infoj(j echoLog.JSON) { l.Logger.WithFields(logrus.Fields(j)).Info() }

func (l *customLogger) Warnj(j echoLog.JSON) { l.Logger.WithFields(logrus.Fields(j)).Warn() }

func (l *customLogger) Errorj(j echoLog.JSON) { l.Logger.WithFields(logrus.Fields(j)).Error() }

func (l *customLogger) Fatalj(j echoLog.JSON) { l.Logger.WithFields(logrus.Fields(j)).Fatal() }

func (l *customLogger) Panicj(j echoLog.JSON) { l.Logger.WithFields(logrus.Fields(j)).Panic() }

func (l *customLogger) Printj(j echoLog.JSON) { l.Logger.WithFields(logrus.Fields(j)).Info() }
