package serve

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var xlog = logrus.WithField("module", "server")

func readRequestBody(c echo.Context) (string, error) {
	req := c.Request()
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		return "", err
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	return string(bodyBytes), nil
}

// httpLogMiddleware 每个请求一行日志; dumpBody 时记录非 multipart 的请求体
func httpLogMiddleware(dumpBody bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			res := c.Response()

			var requestBody string
			if dumpBody && !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
				requestBody, _ = readRequestBody(c)
			}

			err := next(c)

			reqid := req.Header.Get(echo.HeaderXRequestID)
			if reqid == "" {
				reqid = res.Header().Get(echo.HeaderXRequestID)
			}

			latency := time.Since(start).Milliseconds()
			fields := logrus.Fields{
				"module":        "httplog",
				"latency":       latency,
				"latency_human": fmt.Sprintf("%dms", latency),
				"protocol":      req.Proto,
				"remote_ip":     c.RealIP(),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"route":         c.Path(),
				"reqid":         reqid,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"bytes_in":      req.Header.Get(echo.HeaderContentLength),
				"bytes_out":     res.Size,
			}
			if requestBody != "" {
				fields["request_body"] = requestBody
			}
			if err != nil {
				fields["error"] = err.Error()
				if he, ok := err.(*echo.HTTPError); ok {
					fields["status"] = he.Code
				}
			}

			xlog.WithFields(fields).Info("request")
			return err
		}
	}
}
