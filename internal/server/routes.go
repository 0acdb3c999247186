package server

import (
	"github.com/celine-eu/rec-registry/internal/server/middleware"
	"github.com/celine-eu/rec-registry/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	e.GET("/version", routes.GetVersionHandler)

	// Context documents are public: exported graphs reference them and
	// consumers dereference without credentials.
	e.GET("/contexts/rec/:version", routes.GetContextHandler)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Admin import/export routes
	apiRoutes.POST("/admin/import", routes.ImportHandler, middleware.RequirePermission(middleware.PermImport))
	apiRoutes.POST("/admin/import/yaml", routes.ImportYAMLHandler, middleware.RequirePermission(middleware.PermImport))
	apiRoutes.GET("/admin/export", routes.ExportHandler, middleware.RequirePermission(middleware.PermExport))

	// Bundle archive routes
	apiRoutes.GET("/admin/archives", routes.ListArchivesHandler, middleware.RequirePermission(middleware.PermViewArchive))
	apiRoutes.GET("/admin/archives/download", routes.GetArchiveHandler, middleware.RequirePermission(middleware.PermViewArchive))

	// Community read routes
	apiRoutes.GET("/communities", routes.ListCommunitiesHandler, middleware.RequireAnyPermission(middleware.PermView, middleware.PermExport))
	apiRoutes.GET("/communities/:key", routes.GetCommunityHandler, middleware.RequireAnyPermission(middleware.PermView, middleware.PermExport))
	apiRoutes.GET("/communities/:key/graph", routes.GetCommunityGraphHandler, middleware.RequireAnyPermission(middleware.PermView, middleware.PermExport))
}
