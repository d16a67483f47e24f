// Package routes 注册全部 HTTP 路由
package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	svc "github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/routes/admin"
)

type Options struct {
	// AssetDir 本地存储时在 /fonts 下提供静态文件, 为空则不提供
	AssetDir string
}

func Init(service *svc.Service, opts Options) func(e *echo.Echo) error {
	return func(e *echo.Echo) error {
		e.GET("/healthz", func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})

		admin.AdminAttach(e.Group("/api/admin"), service)

		if opts.AssetDir != "" {
			static := e.Group("/fonts")
			static.Use(cacheControl)
			static.Use(middleware.StaticWithConfig(middleware.StaticConfig{
				Root: opts.AssetDir,
			}))
		}
		return nil
	}
}

// cacheControl 字体文件名带时间戳, 可以长期缓存; fonts.css 通过 ?ver= 刷新
func cacheControl(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
		c.Response().Header().Set("Cache-Control", "public, max-age=31536000")
		return next(c)
	}
}
