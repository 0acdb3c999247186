package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/server/middleware"
	"github.com/celine-eu/rec-registry/pkg/logger"
	"github.com/celine-eu/rec-registry/pkg/registry"
)

// GetCommunityHandler returns one community summary by key as a linked-data
// node.
func GetCommunityHandler(c echo.Context) error {
	key := c.Param("key")

	app := c.(*middleware.AppContext).App
	store := registry.NewStore(app.DBConn)

	summary, err := store.GetCommunity(c.Request().Context(), key)
	if err != nil {
		var notFound *registry.NotFoundError
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		logger.Error("Failed to get community", "community", key, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	doc := registry.BuildCommunityDocument(app.BaseURL, c.QueryParam("version"), summary)
	return c.JSON(http.StatusOK, doc)
}
