package routes

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/pkg/bundle"
)

// ImportYAMLHandler replaces a community graph from a raw YAML bundle body.
// Import options come in as query parameters since the body is the document
// itself.
func ImportYAMLHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{
			Message: "Invalid request body",
		})
	}

	raw, err := bundle.LoadYAML(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{
			Message: err.Error(),
		})
	}

	dryRun, _ := strconv.ParseBool(c.QueryParam("dry_run"))
	skipUnchanged, _ := strconv.ParseBool(c.QueryParam("skip_unchanged"))

	return runImport(c, raw, importOptions{
		DryRun:        dryRun,
		Policy:        c.QueryParam("policy"),
		SkipUnchanged: skipUnchanged,
	})
}
