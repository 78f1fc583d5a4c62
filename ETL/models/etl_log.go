package models

import (
	"context"
	"time"
)

// Статусы запуска
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog - запись истории запусков в хранилище
type ETLRunLog struct {
	ID                   string    `json:"id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time,omitempty"`
	Status               string    `json:"status"`
	SourceRows           int       `json:"source_rows"`
	CandidateRows        int       `json:"candidate_rows"`
	DroppedInvalidDate   int       `json:"dropped_invalid_date"`
	UnresolvedRows       int       `json:"unresolved_rows"`
	FactsLoaded          int       `json:"facts_loaded"`
	FailedStage          string    `json:"failed_stage,omitempty"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunCounts - количества строк, записываемые для успешного запуска
type RunCounts struct {
	SourceRows         int
	CandidateRows      int
	DroppedInvalidDate int
	UnresolvedRows     int
	FactsLoaded        int
}

// ETLLogRepository хранит историю запусков
type ETLLogRepository interface {
	// CreateETLLogTable создает таблицу истории, если ее нет
	CreateETLLogTable(ctx context.Context) error

	// CreateLogEntry записывает начало запуска
	CreateLogEntry(ctx context.Context, id string, startTime time.Time) error

	// UpdateLogEntrySuccess записывает успешное завершение запуска
	UpdateLogEntrySuccess(ctx context.Context, id string, endTime time.Time, counts RunCounts) error

	// UpdateLogEntryFailure записывает неудачный запуск
	UpdateLogEntryFailure(ctx context.Context, id string, endTime time.Time, failedStage, errorMessage string) error

	// GetLastSuccessfulRun возвращает последний успешный запуск или nil, если его нет
	GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error)

	// GetRecentRuns возвращает до limit запусков, начиная с новых
	GetRecentRuns(ctx context.Context, limit int) ([]ETLRunLog, error)
}
