package log

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// sentryHook 将 error 以上级别的日志上报到 sentry
type sentryHook struct {
	hub *sentry.Hub
}

func NewSentryHook(dsn, environment string) (*sentryHook, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sentry init")
	}
	return &sentryHook{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (h *sentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *sentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	if entry.Level < logrus.ErrorLevel {
		event.Level = sentry.LevelFatal
	}
	event.Message = entry.Message
	event.Timestamp = entry.Time
	for k, v := range entry.Data {
		if err, ok := v.(error); ok && k == logrus.ErrorKey {
			event.Exception = append(event.Exception, sentry.Exception{
				Type:  "error",
				Value: err.Error(),
			})
			continue
		}
		event.Extra[k] = v
	}
	h.hub.CaptureEvent(event)
	return nil
}

// Flush 在进程退出前调用
func (h *sentryHook) Flush() {
	h.hub.Flush(2 * time.Second)
}
