package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
	"github.com/LilVoxy/retail_etl/websocket"
)

type fakeRunRepo struct {
	runs      []models.ETLRunLog
	lastLimit int
}

func (f *fakeRunRepo) CreateETLLogTable(context.Context) error { return nil }

func (f *fakeRunRepo) CreateLogEntry(context.Context, string, time.Time) error { return nil }

func (f *fakeRunRepo) UpdateLogEntrySuccess(context.Context, string, time.Time, models.RunCounts) error {
	return nil
}

func (f *fakeRunRepo) UpdateLogEntryFailure(context.Context, string, time.Time, string, string) error {
	return nil
}

func (f *fakeRunRepo) GetLastSuccessfulRun(context.Context) (*models.ETLRunLog, error) {
	for _, r := range f.runs {
		if r.Status == models.RunStatusSuccess {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) GetRecentRuns(_ context.Context, limit int) ([]models.ETLRunLog, error) {
	f.lastLimit = limit
	return f.runs[:min(limit, len(f.runs))], nil
}

func newTestRouter(repo models.ETLLogRepository) *mux.Router {
	logger := utils.NewNopLogger()
	router := mux.NewRouter()
	SetupRoutes(router, repo, websocket.NewManager(logger), logger)
	return router
}

func serve(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetRunsHandler(t *testing.T) {
	repo := &fakeRunRepo{runs: []models.ETLRunLog{
		{ID: "run-2", Status: models.RunStatusFailed, FailedStage: "extract"},
		{ID: "run-1", Status: models.RunStatusSuccess, FactsLoaded: 2},
	}}
	router := newTestRouter(repo)

	rec := serve(router, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, defaultRunsLimit, repo.lastLimit)

	var body RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 2)
	require.Equal(t, "run-2", body.Runs[0].ID)

	rec = serve(router, "/api/runs?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, repo.lastLimit)

	rec = serve(router, "/api/runs?limit=100000")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, maxRunsLimit, repo.lastLimit)

	rec = serve(router, "/api/runs?limit=zero")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRunsHandler_EmptyHistory(t *testing.T) {
	rec := serve(newTestRouter(&fakeRunRepo{}), "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"runs":[]}`, rec.Body.String())
}

func TestGetLastRunHandler(t *testing.T) {
	rec := serve(newTestRouter(&fakeRunRepo{}), "/api/runs/last")
	require.Equal(t, http.StatusNotFound, rec.Code)

	repo := &fakeRunRepo{runs: []models.ETLRunLog{
		{ID: "run-2", Status: models.RunStatusFailed},
		{ID: "run-1", Status: models.RunStatusSuccess, FactsLoaded: 2},
	}}
	rec = serve(newTestRouter(repo), "/api/runs/last")
	require.Equal(t, http.StatusOK, rec.Code)

	var run models.ETLRunLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.Equal(t, "run-1", run.ID)
	require.Equal(t, 2, run.FactsLoaded)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(&fakeRunRepo{})

	rec := serve(router, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = serve(router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
