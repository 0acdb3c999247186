package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/queue"
	"github.com/celine-eu/rec-registry/internal/server/middleware"
	"github.com/celine-eu/rec-registry/internal/storage"
	"github.com/celine-eu/rec-registry/pkg/bundle"
	"github.com/celine-eu/rec-registry/pkg/leaselock"
	"github.com/celine-eu/rec-registry/pkg/logger"
	"github.com/celine-eu/rec-registry/pkg/registry"
)

type importResponse struct {
	Message string                 `json:"message"`
	Report  *registry.ImportReport `json:"report,omitempty"`
}

type importOptions struct {
	DryRun        bool
	Policy        string
	SkipUnchanged bool
}

// runImport is the shared import pipeline behind both the JSON and the YAML
// entrypoints: decode, resolve, replace under a per-community lease, then
// notify and archive.
func runImport(c echo.Context, raw map[string]any, opts importOptions) error {
	b, err := bundle.Decode(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{Message: err.Error()})
	}

	policy, err := registry.ParsePolicy(opts.Policy, registry.PolicyStrict)
	if err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{Message: err.Error()})
	}

	app := c.(*middleware.AppContext).App
	g, err := registry.Resolve(b, app.BaseURL, policy)
	if err != nil {
		var refErr *registry.ReferenceError
		if errors.As(err, &refErr) {
			return c.JSON(http.StatusUnprocessableEntity, importResponse{Message: err.Error()})
		}
		return c.JSON(http.StatusBadRequest, importResponse{Message: err.Error()})
	}

	hash, err := bundle.ContentHash(raw)
	if err != nil {
		logger.Error("Failed to hash bundle", "community", g.CommunityKey, "err", err)
	} else {
		g.ContentHash = hash
	}

	ctx := c.Request().Context()
	store := registry.NewStore(app.DBConn)

	if opts.DryRun {
		report, err := store.Replace(ctx, g, registry.ReplaceOptions{DryRun: true})
		if err != nil {
			logger.Error("Dry-run import failed", "community", g.CommunityKey, "err", err)
			return c.JSON(http.StatusInternalServerError, importResponse{Message: "Internal server error"})
		}
		return c.JSON(http.StatusOK, importResponse{
			Message: "Dry run completed",
			Report:  report,
		})
	}

	var report *registry.ImportReport
	err = app.Lock.WithLease(ctx, "import:"+g.CommunityKey, leaselock.Options{
		TTL:         2 * time.Minute,
		TokenPrefix: "import-",
	}, func(leaseCtx context.Context) error {
		var replaceErr error
		report, replaceErr = store.Replace(leaseCtx, g, registry.ReplaceOptions{
			SkipUnchanged: opts.SkipUnchanged,
		})
		return replaceErr
	})
	if err != nil {
		if errors.Is(err, leaselock.ErrBusy) {
			return c.JSON(http.StatusConflict, importResponse{
				Message: "Another import for this community is in progress",
			})
		}
		var constraintErr *registry.ConstraintViolationError
		if errors.As(err, &constraintErr) {
			return c.JSON(http.StatusConflict, importResponse{Message: err.Error()})
		}
		logger.Error("Import failed", "community", g.CommunityKey, "err", err)
		return c.JSON(http.StatusInternalServerError, importResponse{Message: "Internal server error"})
	}

	app.Events.PublishCommunityReplaced(ctx, queue.CommunityReplacedEvent{
		CommunityKey: report.CommunityKey,
		Deleted:      report.Deleted,
		Inserted:     report.Inserted,
		OccurredAt:   time.Now().UTC(),
	})

	if app.S3 != nil {
		doc, err := bundle.DumpYAML(raw)
		if err != nil {
			logger.Error("Failed to serialize bundle for archive", "community", g.CommunityKey, "err", err)
		} else if _, err := storage.ArchiveBundle(ctx, app.S3, g.CommunityKey, doc); err != nil {
			logger.Error("Failed to archive bundle", "community", g.CommunityKey, "err", err)
		}
	}

	return c.JSON(http.StatusOK, importResponse{
		Message: "Import completed",
		Report:  report,
	})
}
