// Package fonts 字体管理 JSON 接口
package fonts

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	svc "github.com/chrmrtns/safefonts/biz/fonts"
)

type handler struct {
	fonts *svc.Service
	log   *logrus.Entry
}

// Attach 在 g 上注册字体管理路由
func Attach(g *echo.Group, fonts *svc.Service) {
	h := &handler{fonts: fonts, log: logrus.WithField("module", "routes.fonts")}

	g.GET("", h.list)
	g.POST("/upload", h.upload)
	g.POST("/delete", h.delete)
	g.DELETE("/:id", h.deleteByID)
	g.POST("/bulk-delete", h.bulkDelete)

	g.GET("/css", h.css)
	g.GET("/css/url", h.cssURL)
	g.POST("/regenerate", h.regenerate)

	g.GET("/editor", h.editor)
	g.GET("/collection", h.collection)
	g.GET("/preload", h.preload)
	g.GET("/preload/options", h.preloadOptions)

	g.POST("/inspect", h.inspect)

	g.GET("/settings", h.getSettings)
	g.PUT("/settings", h.putSettings)
}
