package fonts

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/logx"
)

// statusOf 错误类型到 HTTP 状态码
func statusOf(kind fonterr.Kind) int {
	switch {
	case kind == fonterr.FileTooLarge:
		return http.StatusRequestEntityTooLarge
	case kind.Validation():
		return http.StatusBadRequest
	case kind == fonterr.RecordNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail 输出 {code: 1, kind, error}; 未分类的错误不向客户端暴露细节
func (h *handler) fail(c echo.Context, err error) error {
	kind := fonterr.KindOf(err)
	status := statusOf(kind)
	msg := fonterr.Message(err)

	log := logx.LoggerWith(c.Request().Context(), h.log).WithField("kind", kind).WithError(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed", c.Request().Method, c.Path())
		if kind == fonterr.Unknown {
			msg = "Internal server error"
		}
	} else {
		log.Infof("%s %s rejected", c.Request().Method, c.Path())
	}
	return c.JSON(status, echo.Map{"code": 1, "kind": kind, "error": msg})
}

// badRequest 请求参数不完整或格式错误
func (h *handler) badRequest(c echo.Context, err error) error {
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	return h.fail(c, fonterr.Wrap(err, fonterr.InvalidInput, "%s", msg))
}

// fontID 兼容数字和字符串形式的 id
type fontID int64

func (id *fontID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fonterr.Wrap(err, fonterr.InvalidInput, "Invalid font id %s", b)
	}
	*id = fontID(n)
	return nil
}

func int64s(ids []fontID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
