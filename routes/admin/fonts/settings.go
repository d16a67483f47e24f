package fonts

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *handler) getSettings(c echo.Context) error {
	set, err := h.fonts.LoadSettings(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, set)
}

// putSettings 在当前配置上合并请求中出现的字段, 保存时校验
func (h *handler) putSettings(c echo.Context) error {
	ctx := c.Request().Context()
	set, err := h.fonts.LoadSettings(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	if err := c.Bind(&set); err != nil {
		return h.badRequest(c, err)
	}
	if err := h.fonts.SaveSettings(ctx, set); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, set)
}
