package log

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FIELD:
//   - reqid: 请求ID
//   - module: 模块名称
//   - family / path / id: 字体相关上下文

type Options struct {
	Dir       string // 日志目录, 为空时只输出到终端
	Level     string
	Terminal  bool // 彩色终端输出
	NoColor   bool
	SentryDSN string
	Env       string
}

func Init(opts Options) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetReportCaller(true)
	logrus.SetFormatter(newFormatter())

	var out io.Writer = io.Discard
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return errors.Wrapf(err, "create log dir %s", opts.Dir)
		}
		out = NewLogWriter(filepath.Join(opts.Dir, "safefonts.log"))
	} else if !opts.Terminal {
		out = os.Stderr
	}
	logrus.SetOutput(out)

	if opts.Terminal {
		color.NoColor = opts.NoColor
		logrus.AddHook(NewTerminalHook(os.Stdout))
	}
	if opts.SentryDSN != "" {
		hook, err := NewSentryHook(opts.SentryDSN, opts.Env)
		if err != nil {
			return err
		}
		logrus.AddHook(hook)
	}
	return nil
}

// InitDebug 测试和本地开发使用
func InitDebug() {
	color.NoColor = false
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetReportCaller(true)
	logrus.SetFormatter(newFormatter())
	logrus.SetOutput(io.Discard)
	logrus.AddHook(NewTerminalHook(os.Stdout))
}

func newFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		CallerPrettyfier: func(f *runtime.Frame) (function string, file string) {
			function = path.Base(f.Function)
			file = path.Base(f.File) + ":" + strconv.Itoa(f.Line)
			return
		},
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	}
}
