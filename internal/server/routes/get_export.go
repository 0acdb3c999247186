package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/server/middleware"
	"github.com/celine-eu/rec-registry/pkg/bundle"
	"github.com/celine-eu/rec-registry/pkg/logger"
	"github.com/celine-eu/rec-registry/pkg/registry"
)

// ExportHandler renders the stored graph of one community as a YAML bundle
// that re-imports to the identical graph.
func ExportHandler(c echo.Context) error {
	key := c.QueryParam("community")
	if key == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Missing required query parameter: community",
		})
	}

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

	doc, err := bundle.DumpYAML(registry.BuildBundleDoc(g))
	if err != nil {
		logger.Error("Failed to serialize bundle", "community", key, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.Blob(http.StatusOK, "application/yaml", doc)
}
