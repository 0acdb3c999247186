package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/util"
)

// Version is stamped at build time via -ldflags "-X ...routes.Version=...".
var Version = "dev"

// GetVersionHandler reports the service name, build version and the default
// context version it serves.
func GetVersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":            "rec-registry",
		"version":         Version,
		"context_version": util.GetEnvString("CONTEXT_VERSION", "v1"),
	})
}
