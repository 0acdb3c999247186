package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/server/middleware"
	"github.com/celine-eu/rec-registry/pkg/logger"
	"github.com/celine-eu/rec-registry/pkg/registry"
)

// GetCommunityGraphHandler projects one stored community graph as a
// linked-data document.
func GetCommunityGraphHandler(c echo.Context) error {
	key := c.Param("key")

	app := c.(*middleware.AppContext).App
	store := registry.NewStore(app.DBConn)

	g, err := store.LoadGraph(c.Request().Context(), key)
	if err != nil {
		var notFound *registry.NotFoundError
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		logger.Error("Failed to load community graph", "community", key, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	doc := registry.BuildGraphDocument(app.BaseURL, c.QueryParam("version"), g)
	return c.JSON(http.StatusOK, doc)
}
