package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"priorfit/internal/config"
)

func TestNewWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GIN_MODE", "test")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect without a database should be a no-op: %v", err)
	}
	if c.DB != nil {
		t.Error("no database expected")
	}
	if c.Calibrations == nil || c.Batches == nil {
		t.Fatal("services not wired")
	}

	w := httptest.NewRecorder()
	c.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/families", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/v1/families = %d", w.Code)
	}

	if err := c.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected an error for a nil config")
	}
}
