package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/server/middleware"
	"github.com/celine-eu/rec-registry/pkg/logger"
	"github.com/celine-eu/rec-registry/pkg/registry"
)

// ListCommunitiesHandler lists registered communities with per-kind entity
// counts, as a linked-data graph of community nodes.
func ListCommunitiesHandler(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	app := c.(*middleware.AppContext).App
	store := registry.NewStore(app.DBConn)

	communities, err := store.ListCommunities(c.Request().Context(), c.QueryParam("q"), limit, offset)
	if err != nil {
		logger.Error("Failed to list communities", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	doc := registry.BuildCommunityListDocument(app.BaseURL, c.QueryParam("version"), communities)
	return c.JSON(http.StatusOK, doc)
}
