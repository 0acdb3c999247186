package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ImportHandler replaces a community graph from a JSON-wrapped bundle.
func ImportHandler(c echo.Context) error {
	type importBody struct {
		Bundle        map[string]any `json:"bundle" validate:"required"`
		DryRun        bool           `json:"dry_run"`
		Policy        string         `json:"policy"`
		SkipUnchanged bool           `json:"skip_unchanged"`
	}

	data := new(importBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{
			Message: "Invalid request body",
		})
	}

	return runImport(c, data.Bundle, importOptions{
		DryRun:        data.DryRun,
		Policy:        data.Policy,
		SkipUnchanged: data.SkipUnchanged,
	})
}
