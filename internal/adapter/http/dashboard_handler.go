package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"realestate-lifecycle/internal/usecase/lifecycle"
)

type DashboardHandler struct{ engine *lifecycle.Engine }

func NewDashboardHandler(e *lifecycle.Engine) *DashboardHandler { return &DashboardHandler{engine: e} }

func (h *DashboardHandler) Stats(c echo.Context) error {
	out, err := h.engine.Stats(c.Request().Context(), c.QueryParam("investor_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
