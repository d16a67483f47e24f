package serve

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chrmrtns/safefonts/pkg/snowflake"
)

// EchoTestSetup 测试用 echo 实例, 与 NewEchoServer 相同的绑定/校验/错误处理, 不含日志和限流
func EchoTestSetup() *echo.Echo {
	engine := echo.New()
	engine.HTTPErrorHandler = httpErrorHandler
	engine.JSONSerializer = jsonSerializer{}
	engine.Validator = NewCustomValidator()
	engine.Binder = NewCustomBinder()

	engine.Use(requestID(snowflake.MustNew(1)))
	engine.Use(middleware.BodyLimit("10M"))
	engine.Use(sessionMiddleware())
	return engine
}
