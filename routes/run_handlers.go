// routes/run_handlers.go
package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// RunsResponse - тело ответа GET /api/runs
type RunsResponse struct {
	Runs []models.ETLRunLog `json:"runs"`
}

// GetRunsHandler возвращает последние запуски, начиная с новых
func GetRunsHandler(repo models.ETLLogRepository, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxRunsLimit)
		}

		runs, err := repo.GetRecentRuns(r.Context(), limit)
		if err != nil {
			logger.Error("Не удалось получить список запусков: %v", err)
			http.Error(w, "could not list runs", http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []models.ETLRunLog{}
		}

		writeJSON(w, logger, RunsResponse{Runs: runs})
	}
}

// GetLastRunHandler возвращает последний успешный запуск
func GetLastRunHandler(repo models.ETLLogRepository, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := repo.GetLastSuccessfulRun(r.Context())
		if err != nil {
			logger.Error("Не удалось прочитать последний запуск: %v", err)
			http.Error(w, "could not read last run", http.StatusInternalServerError)
			return
		}
		if run == nil {
			http.Error(w, "no successful run yet", http.StatusNotFound)
			return
		}

		writeJSON(w, logger, run)
	}
}

// HealthHandler сообщает, что процесс работает
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, logger *utils.ETLLogger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Не удалось сериализовать ответ: %v", err)
	}
}
