package fonts

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/serve"
)

func (h *handler) delete(c echo.Context) error {
	type Input struct {
		ID fontID `json:"id" validate:"required"`
	}
	var in Input
	if err := serve.BindAndValidate(c, &in); err != nil {
		return h.badRequest(c, err)
	}
	return h.deleteOne(c, int64(in.ID))
}

func (h *handler) deleteByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return h.fail(c, fonterr.Wrap(err, fonterr.InvalidInput, "Invalid font id %s", c.Param("id")))
	}
	return h.deleteOne(c, id)
}

func (h *handler) deleteOne(c echo.Context, id int64) error {
	if err := h.fonts.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted_count": 1, "message": "Font deleted successfully."})
}

// bulkDelete 部分失败时仍返回 200, failed 列出未删除的 id
func (h *handler) bulkDelete(c echo.Context) error {
	type Input struct {
		IDs []fontID `json:"ids" validate:"required,min=1"`
	}
	var in Input
	if err := serve.BindAndValidate(c, &in); err != nil {
		return h.badRequest(c, err)
	}

	res := h.fonts.BulkDelete(c.Request().Context(), int64s(in.IDs))

	type Output struct {
		Deleted int      `json:"deleted_count"`
		Failed  []string `json:"failed"`
		Message string   `json:"message"`
	}
	failed := make([]string, len(res.Failed))
	for i, id := range res.Failed {
		failed[i] = strconv.FormatInt(id, 10)
	}
	return c.JSON(http.StatusOK, Output{Deleted: res.Deleted, Failed: failed, Message: bulkMessage(res.Deleted)})
}

func bulkMessage(n int) string {
	if n == 1 {
		return "1 font deleted successfully."
	}
	return fmt.Sprintf("%d fonts deleted successfully.", n)
}
