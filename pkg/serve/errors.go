package serve

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// httpErrorHandler 记录日志后按 {message} 输出; 业务错误由路由层自行输出
func httpErrorHandler(err error, c echo.Context) {
	reqid := c.Response().Header().Get(echo.HeaderXRequestID)
	log := xlog.WithFields(logrus.Fields{
		"reqid":  reqid,
		"url":    c.Request().URL.String(),
		"method": c.Request().Method,
	}).WithError(err)

	if c.Response().Committed {
		return
	}

	he, ok := err.(*echo.HTTPError)
	if ok {
		if herr, ok := he.Internal.(*echo.HTTPError); ok {
			he = herr
		}
	} else {
		he = &echo.HTTPError{
			Code:    http.StatusInternalServerError,
			Message: http.StatusText(http.StatusInternalServerError),
		}
	}
	if he.Code >= http.StatusInternalServerError {
		log.Error("HTTP服务错误")
	} else {
		log.Info("HTTP请求错误")
	}

	message := he.Message
	switch m := he.Message.(type) {
	case string:
		message = echo.Map{"message": m}
	case error:
		message = echo.Map{"message": m.Error()}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, message)
	}
	if err != nil {
		log.WithField("cause", err.Error()).Debug("write error response")
	}
}
