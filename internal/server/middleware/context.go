package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/celine-eu/rec-registry/internal/queue"
	"github.com/celine-eu/rec-registry/pkg/leaselock"
)

type AppUser struct {
	Subject     string
	Role        string
	Permissions []string
}

type App struct {
	DBConn         *pgxpool.Pool
	Events         *queue.Publisher
	Key            *keyfunc.Keyfunc
	S3             *s3.Client
	Lock           *leaselock.Client
	BaseURL        string
	MasterAPIKey   string
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
