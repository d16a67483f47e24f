package serve

import (
	"github.com/labstack/echo/v4"

	"github.com/chrmrtns/safefonts/pkg/orm"
)

// sessionMiddleware 把 reqid 放入 request context, 供 logx 和 SQL 日志使用
func sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqid := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(orm.WithReqID(req.Context(), reqid)))
			return next(c)
		}
	}
}
