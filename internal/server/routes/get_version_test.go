package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestGetVersionHandler(t *testing.T) {
	t.Setenv("CONTEXT_VERSION", "v2")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	if err := GetVersionHandler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["name"] != "rec-registry" || body["version"] != "dev" {
		t.Fatalf("body = %v", body)
	}
	if body["context_version"] != "v2" {
		t.Fatalf("context_version = %q", body["context_version"])
	}
}
