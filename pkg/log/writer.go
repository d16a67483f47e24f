package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

func NewLogWriter(filepath string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath,
		MaxSize:    20, // MB
		MaxBackups: 10,
		Compress:   true,
		LocalTime:  true,
	}
}
