// routes/api_routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
	"github.com/LilVoxy/retail_etl/websocket"
)

// SetupRoutes регистрирует API статуса, метрики и поток прогресса
func SetupRoutes(router *mux.Router, runRepo models.ETLLogRepository, wsManager *websocket.Manager, logger *utils.ETLLogger) {
	router.Use(corsMiddleware)

	// Поток прогресса
	router.HandleFunc("/ws/progress", wsManager.HandleConnections)

	// История запусков
	router.HandleFunc("/api/runs", GetRunsHandler(runRepo, logger)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/runs/last", GetLastRunHandler(runRepo, logger)).Methods("GET", "OPTIONS")

	// Проверки
	router.HandleFunc("/healthz", HealthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
