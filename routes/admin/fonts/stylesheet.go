package fonts

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chrmrtns/safefonts/pkg/fontcss"
)

// list 按字体族分组
func (h *handler) list(c echo.Context) error {
	families, err := h.fonts.Families(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, families)
}

// css 输出 fonts.css, 支持 If-Modified-Since
func (h *handler) css(c echo.Context) error {
	data, mod, err := h.fonts.Stylesheet(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	http.ServeContent(c.Response(), c.Request(), fontcss.StylesheetName, mod, bytes.NewReader(data))
	return nil
}

func (h *handler) cssURL(c echo.Context) error {
	url, err := h.fonts.StylesheetURL(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

func (h *handler) regenerate(c echo.Context) error {
	if err := h.fonts.Regenerate(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "fonts.css regenerated"})
}

func (h *handler) editor(c echo.Context) error {
	families, err := h.fonts.EditorFamilies(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if families == nil {
		families = []fontcss.FontFamily{}
	}
	return c.JSON(http.StatusOK, families)
}

// collection 没有字体时返回 204
func (h *handler) collection(c echo.Context) error {
	col, err := h.fonts.Collection(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if col == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, col)
}

type preloadHint struct {
	fontcss.PreloadHint
	LinkTag string `json:"link_tag"`
}

func (h *handler) preload(c echo.Context) error {
	hints, err := h.fonts.PreloadHints(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]preloadHint, len(hints))
	for i, hint := range hints {
		out[i] = preloadHint{PreloadHint: hint, LinkTag: hint.LinkTag()}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handler) preloadOptions(c echo.Context) error {
	opts, err := h.fonts.PreloadOptions(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if opts == nil {
		opts = []fontcss.PreloadFamily{}
	}
	return c.JSON(http.StatusOK, opts)
}
