package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func callGuard(t *testing.T, mw echo.MiddlewareFunc, user *AppUser) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	cc := &AppContext{Context: e.NewContext(req, rec), User: user}
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(cc); err != nil {
		t.Fatalf("guard returned error: %v", err)
	}
	return rec
}

func TestRequirePermission(t *testing.T) {
	ok := callGuard(t, RequirePermission(PermImport), &AppUser{Subject: "u1", Permissions: []string{PermImport}})
	if ok.Code != http.StatusOK {
		t.Fatalf("granted scope rejected: %d", ok.Code)
	}

	denied := callGuard(t, RequirePermission(PermImport), &AppUser{Subject: "u1", Permissions: []string{PermView}})
	if denied.Code != http.StatusForbidden {
		t.Fatalf("missing scope status = %d, want 403", denied.Code)
	}

	anonymous := callGuard(t, RequirePermission(PermImport), nil)
	if anonymous.Code != http.StatusUnauthorized {
		t.Fatalf("missing user status = %d, want 401", anonymous.Code)
	}
}

func TestRequireAnyPermission(t *testing.T) {
	ok := callGuard(t, RequireAnyPermission(PermView, PermExport), &AppUser{Subject: "u1", Permissions: []string{PermExport}})
	if ok.Code != http.StatusOK {
		t.Fatalf("granted scope rejected: %d", ok.Code)
	}

	denied := callGuard(t, RequireAnyPermission(PermView, PermExport), &AppUser{Subject: "u1", Permissions: []string{PermImport}})
	if denied.Code != http.StatusForbidden {
		t.Fatalf("missing scopes status = %d, want 403", denied.Code)
	}
}

func TestHasAnyPermission(t *testing.T) {
	if HasAnyPermission(nil, PermView) {
		t.Fatal("nil user must not pass")
	}
	if HasAnyPermission(&AppUser{Subject: "u1"}, PermView, PermExport) {
		t.Fatal("user without scopes must not pass")
	}
	if !HasAnyPermission(&AppUser{Subject: "u1", Permissions: allPermissions}, PermViewArchive) {
		t.Fatal("user with all scopes must pass")
	}
}
