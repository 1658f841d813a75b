package handlers

import (
	"tubefetch/internal/models"
	"tubefetch/web/components"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Home は現在のジョブと履歴を表示するページ
// GET /
func (h *DownloadHandler) Home(c echo.Context) error {
	current, ok := h.jobs.Progress()
	var active *models.JobView
	if ok {
		active = &current
	}
	return render(c, components.Status(active, h.jobs.History()))
}

func render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	return component.Render(c.Request().Context(), c.Response())
}
