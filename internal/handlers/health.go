package handlers

import (
	"net/http"

	"tubefetch/internal/version"

	"github.com/labstack/echo/v4"
)

// Health はサーバーの稼働状態とバージョンを返す
// GET /health
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
