package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// Registry access scopes. Tokens carry them in the permissions claim; admin
// tokens without an explicit claim get all of them (see AuthMiddleware).
const (
	PermImport      = "registry.import"
	PermExport      = "registry.export"
	PermView        = "registry.view"
	PermViewArchive = "registry.view:archive"
)

var allPermissions = []string{PermImport, PermExport, PermView, PermViewArchive}

// HasPermission reports whether the user carries the scope.
func HasPermission(user *AppUser, permission string) bool {
	return user != nil && slices.Contains(user.Permissions, permission)
}

// HasAnyPermission reports whether the user carries at least one of the
// scopes.
func HasAnyPermission(user *AppUser, permissions ...string) bool {
	if user == nil {
		return false
	}
	return slices.ContainsFunc(permissions, func(p string) bool {
		return slices.Contains(user.Permissions, p)
	})
}

// RequirePermission guards a route behind one scope.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return guard(func(user *AppUser) bool {
		return HasPermission(user, permission)
	}, "Forbidden: missing permission "+permission)
}

// RequireAnyPermission guards a route behind a set of scopes, any one of
// which grants access.
func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return guard(func(user *AppUser) bool {
		return HasAnyPermission(user, permissions...)
	}, "Forbidden: missing required permission")
}

func guard(allowed func(*AppUser) bool, denied string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if !allowed(user) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": denied})
			}
			return next(c)
		}
	}
}
