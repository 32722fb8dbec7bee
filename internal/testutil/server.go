// A shared test server setup utility, which simplifies all API tests.

package testutil

import (
	"database/sql"
	"testing"

	"github.com/tomtuamnuq/speak2see-go/internal/api"
	"github.com/tomtuamnuq/speak2see-go/internal/config"
	"github.com/tomtuamnuq/speak2see-go/internal/core"
	"github.com/tomtuamnuq/speak2see-go/internal/websocket"
)

// SetupTestApp initializes a core.App backed by an in-memory database.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	database := SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Recording.MaxUploadBytes = 3 * 1024 * 1024
	cfg.Processing.TokenSecret = "test-secret"

	hub := websocket.NewHub()
	go hub.Run()

	return &core.App{
		Config: cfg,
		DB:     database,
		Hub:    hub,
	}
}

// SetupTestServer initializes a full core.App and api.Server for
// integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t)
	return api.NewServer(app), app.DB
}
