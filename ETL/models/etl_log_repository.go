package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LilVoxy/retail_etl/ETL/dialect"
)

// SQLETLLogRepository реализует ETLLogRepository на базе хранилища
type SQLETLLogRepository struct {
	db      *sql.DB
	dialect dialect.Dialect
	table   string
}

// NewSQLETLLogRepository создает новый экземпляр SQLETLLogRepository
func NewSQLETLLogRepository(db *sql.DB, d dialect.Dialect, table string) *SQLETLLogRepository {
	return &SQLETLLogRepository{
		db:      db,
		dialect: d,
		table:   table,
	}
}

// CreateETLLogTable создает таблицу истории, если ее нет
func (r *SQLETLLogRepository) CreateETLLogTable(ctx context.Context) error {
	ts := r.dialect.TimestampType()
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		start_time %s NOT NULL,
		end_time %s NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'in_progress',
		source_rows INTEGER DEFAULT 0,
		candidate_rows INTEGER DEFAULT 0,
		dropped_invalid_date INTEGER DEFAULT 0,
		unresolved_rows INTEGER DEFAULT 0,
		facts_loaded INTEGER DEFAULT 0,
		failed_stage VARCHAR(64) NULL,
		error_message TEXT NULL,
		execution_time_seconds DOUBLE PRECISION NULL
	)`, r.table, ts, ts)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	return nil
}

// CreateLogEntry записывает начало запуска
func (r *SQLETLLogRepository) CreateLogEntry(ctx context.Context, id string, startTime time.Time) error {
	query := r.dialect.Rebind(fmt.Sprintf(
		"INSERT INTO %s (id, start_time, status) VALUES (?, ?, ?)", r.table))

	if _, err := r.db.ExecContext(ctx, query, id, startTime.UTC(), RunStatusInProgress); err != nil {
		return fmt.Errorf("create run log entry: %w", err)
	}
	return nil
}

// UpdateLogEntrySuccess записывает успешное завершение запуска
func (r *SQLETLLogRepository) UpdateLogEntrySuccess(ctx context.Context, id string, endTime time.Time, counts RunCounts) error {
	startTime, err := r.startTime(ctx, id)
	if err != nil {
		return err
	}

	query := r.dialect.Rebind(fmt.Sprintf(`
	UPDATE %s
	SET
		end_time = ?,
		status = ?,
		source_rows = ?,
		candidate_rows = ?,
		dropped_invalid_date = ?,
		unresolved_rows = ?,
		facts_loaded = ?,
		execution_time_seconds = ?
	WHERE id = ?`, r.table))

	_, err = r.db.ExecContext(ctx, query,
		endTime.UTC(),
		RunStatusSuccess,
		counts.SourceRows,
		counts.CandidateRows,
		counts.DroppedInvalidDate,
		counts.UnresolvedRows,
		counts.FactsLoaded,
		endTime.Sub(startTime).Seconds(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run log entry %s: %w", id, err)
	}
	return nil
}

// UpdateLogEntryFailure записывает неудачный запуск
func (r *SQLETLLogRepository) UpdateLogEntryFailure(ctx context.Context, id string, endTime time.Time, failedStage, errorMessage string) error {
	startTime, err := r.startTime(ctx, id)
	if err != nil {
		return err
	}

	query := r.dialect.Rebind(fmt.Sprintf(`
	UPDATE %s
	SET
		end_time = ?,
		status = ?,
		failed_stage = ?,
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?`, r.table))

	_, err = r.db.ExecContext(ctx, query,
		endTime.UTC(),
		RunStatusFailed,
		failedStage,
		errorMessage,
		endTime.Sub(startTime).Seconds(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run log entry %s: %w", id, err)
	}
	return nil
}

// GetLastSuccessfulRun возвращает последний успешный запуск или nil, если его нет
func (r *SQLETLLogRepository) GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error) {
	query := r.dialect.Rebind(r.selectColumns() + " WHERE status = ? ORDER BY end_time DESC LIMIT 1")

	runs, err := r.query(ctx, query, RunStatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("get last successful run: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// GetRecentRuns возвращает до limit запусков, начиная с новых
func (r *SQLETLLogRepository) GetRecentRuns(ctx context.Context, limit int) ([]ETLRunLog, error) {
	query := r.dialect.Rebind(r.selectColumns() + " ORDER BY start_time DESC LIMIT ?")

	runs, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent runs: %w", err)
	}
	return runs, nil
}

func (r *SQLETLLogRepository) startTime(ctx context.Context, id string) (time.Time, error) {
	var startTime time.Time
	query := r.dialect.Rebind(fmt.Sprintf("SELECT start_time FROM %s WHERE id = ?", r.table))
	err := r.db.QueryRowContext(ctx, query, id).Scan(&startTime)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("run log entry %s not found", id)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get start time of run %s: %w", id, err)
	}
	return startTime, nil
}

func (r *SQLETLLogRepository) selectColumns() string {
	return fmt.Sprintf(`
	SELECT
		id, start_time, end_time, status,
		source_rows, candidate_rows, dropped_invalid_date, unresolved_rows, facts_loaded,
		failed_stage, error_message, execution_time_seconds
	FROM %s`, r.table)
}

func (r *SQLETLLogRepository) query(ctx context.Context, query string, args ...any) ([]ETLRunLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []ETLRunLog
	for rows.Next() {
		var (
			log          ETLRunLog
			endTime      sql.Null[time.Time]
			failedStage  sql.Null[string]
			errorMessage sql.Null[string]
			execTime     sql.Null[float64]
		)
		if err := rows.Scan(
			&log.ID, &log.StartTime, &endTime, &log.Status,
			&log.SourceRows, &log.CandidateRows, &log.DroppedInvalidDate, &log.UnresolvedRows, &log.FactsLoaded,
			&failedStage, &errorMessage, &execTime,
		); err != nil {
			return nil, fmt.Errorf("scan run log entry: %w", err)
		}
		log.EndTime = endTime.V
		log.FailedStage = failedStage.V
		log.ErrorMessage = errorMessage.V
		log.ExecutionTimeSeconds = execTime.V
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run log entries: %w", err)
	}
	return logs, nil
}
