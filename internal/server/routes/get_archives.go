package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/server/middleware"
	"github.com/celine-eu/rec-registry/internal/storage"
	"github.com/celine-eu/rec-registry/pkg/logger"
)

// ListArchivesHandler lists the archived bundle documents of one community.
func ListArchivesHandler(c echo.Context) error {
	community := c.QueryParam("community")
	if community == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Missing required query parameter: community",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.S3 == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "Bundle archive is not configured"})
	}

	keys, err := storage.ListArchivedBundles(c.Request().Context(), app.S3, community)
	if err != nil {
		logger.Error("Failed to list bundle archive", "community", community, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if keys == nil {
		keys = []string{}
	}

	return c.JSON(http.StatusOK, map[string]any{"archives": keys})
}

// GetArchiveHandler returns one archived bundle document by object key.
func GetArchiveHandler(c echo.Context) error {
	key := c.QueryParam("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Missing required query parameter: key",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.S3 == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "Bundle archive is not configured"})
	}

	doc, err := storage.GetArchivedBundle(c.Request().Context(), app.S3, key)
	if err != nil {
		logger.Error("Failed to get archived bundle", "key", key, "err", err)
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Archived bundle not found"})
	}

	return c.Blob(http.StatusOK, "application/yaml", doc)
}
