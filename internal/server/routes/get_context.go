package routes

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed rec-v1.jsonld
var contextV1 []byte

// GetContextHandler serves the published linked-data context document. Only
// published versions resolve; anything else is a 404.
func GetContextHandler(c echo.Context) error {
	switch c.Param("version") {
	case "v1":
		return c.Blob(http.StatusOK, "application/ld+json", contextV1)
	default:
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown context version"})
	}
}
