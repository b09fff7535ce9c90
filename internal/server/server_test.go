package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/signalboard/internal/clientdata"
	"github.com/aristath/signalboard/internal/clients/kucoin"
	"github.com/aristath/signalboard/internal/config"
	"github.com/aristath/signalboard/internal/database"
	"github.com/aristath/signalboard/internal/modules/catalog"
	cataloghandlers "github.com/aristath/signalboard/internal/modules/catalog/handlers"
	"github.com/aristath/signalboard/internal/modules/charts"
	chartshandlers "github.com/aristath/signalboard/internal/modules/charts/handlers"
	"github.com/aristath/signalboard/internal/modules/performance"
	performancehandlers "github.com/aristath/signalboard/internal/modules/performance/handlers"
	"github.com/aristath/signalboard/internal/modules/simulation"
	simulationhandlers "github.com/aristath/signalboard/internal/modules/simulation/handlers"
	"github.com/aristath/signalboard/internal/signals"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	signalsDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "signals.db"),
		Profile: database.ProfileStandard,
		Name:    "signals",
	})
	require.NoError(t, err)
	require.NoError(t, signalsDB.Migrate())
	t.Cleanup(func() { _ = signalsDB.Close() })

	clientDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	require.NoError(t, err)
	require.NoError(t, clientDB.Migrate())
	t.Cleanup(func() { _ = clientDB.Close() })

	cacheRepo := clientdata.NewRepository(clientDB.Conn())
	repo := signals.NewRepository(signalsDB, log)
	loader := signals.NewLoader(repo, dir, log)

	catalogService := catalog.NewService(repo, loader, log)
	require.NoError(t, catalogService.Reload())
	performanceService := performance.NewService(catalogService, cacheRepo, log)
	simulationService := simulation.NewService(catalogService, log)
	chartsService := charts.NewService(kucoin.NewClient("http://127.0.0.1:0", cacheRepo, log), log)

	databases := map[string]*database.DB{
		"signals":     signalsDB,
		"client_data": clientDB,
	}

	return New(Config{
		Log:         log,
		Config:      &config.Config{DataDir: dir, Port: 0, DevMode: true},
		SignalsDB:   signalsDB,
		ClientDB:    clientDB,
		Catalog:     cataloghandlers.NewHandler(catalogService, log),
		Performance: performancehandlers.NewHandler(performanceService, log),
		Simulation:  simulationhandlers.NewHandler(simulationService, log),
		Charts:      chartshandlers.NewHandler(chartsService, log),
		System:      NewSystemHandlers(dir, databases, nil, log),
	})
}

func TestServer_Health(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "signalboard", body["service"])
	}
}

func TestServer_RouteWiring(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/models", http.StatusOK},
		{http.MethodGet, "/api/models/nope/stats", http.StatusNotFound},
		{http.MethodGet, "/api/models/nope/stats/advanced", http.StatusNotFound},
		{http.MethodGet, "/api/models/nope/signals", http.StatusNotFound},
		{http.MethodPost, "/api/models/nope/simulate", http.StatusNotFound},
		{http.MethodGet, "/api/correlation", http.StatusBadRequest},
		{http.MethodGet, "/api/charts/candles", http.StatusBadRequest},
		{http.MethodGet, "/api/system/status", http.StatusOK},
		{http.MethodGet, "/api/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestServer_BackupUnavailableWithoutR2(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/system/backup", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
