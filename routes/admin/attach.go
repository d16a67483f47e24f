package admin

import (
	"github.com/labstack/echo/v4"

	svc "github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/routes/admin/fonts"
)

func AdminAttach(attach *echo.Group, service *svc.Service) {
	fonts.Attach(attach.Group("/fonts"), service) // 字体管理
}
