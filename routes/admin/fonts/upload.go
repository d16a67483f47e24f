package fonts

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	svc "github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/logx"
)

const fileField = "font_file"

// upload multipart: font_family, font_weight, font_style, font_file
func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()

	family := strings.TrimSpace(c.FormValue("font_family"))
	if family == "" {
		return h.fail(c, fonterr.New(fonterr.InvalidInput, "Font family name is required."))
	}

	fh, err := c.FormFile(fileField)
	if err != nil {
		return h.fail(c, fonterr.Wrap(err, fonterr.EmptyFile, "No file uploaded."))
	}
	src, err := fh.Open()
	if err != nil {
		return h.fail(c, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to read uploaded file"))
	}
	defer src.Close()

	v, err := h.fonts.Upload(ctx, svc.UploadInput{
		Family:   family,
		Weight:   strings.TrimSpace(c.FormValue("font_weight")),
		Style:    strings.TrimSpace(c.FormValue("font_style")),
		Filename: fh.Filename,
		File:     src,
		Size:     fh.Size,
	})
	if err != nil {
		return h.fail(c, err)
	}

	logx.LoggerWith(ctx, h.log).WithField("id", v.ID).Info("font uploaded")

	type Output struct {
		ID      int64  `json:"id,string"`
		Path    string `json:"file_path"`
		Message string `json:"message"`
	}
	return c.JSON(http.StatusOK, Output{ID: v.ID, Path: v.FilePath, Message: "Font uploaded successfully!"})
}

// inspect 读取上传的 ttf/otf 名称表, 不保存文件
func (h *handler) inspect(c echo.Context) error {
	fh, err := c.FormFile(fileField)
	if err != nil {
		return h.fail(c, fonterr.Wrap(err, fonterr.EmptyFile, "No file uploaded."))
	}
	src, err := fh.Open()
	if err != nil {
		return h.fail(c, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to read uploaded file"))
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return h.fail(c, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to read uploaded file"))
	}
	info, err := h.fonts.Inspect(c.Request().Context(), data, fh.Filename)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, info)
}
