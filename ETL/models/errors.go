package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrConnectivity означает, что база данных недоступна или отклонила аутентификацию
	ErrConnectivity = errors.New("database unreachable")

	// ErrSchemaMismatch означает запрос или таблицу со столбцами, отличными от ожидаемых
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// LoadStage - этап двухфазного протокола загрузки
type LoadStage string

const (
	StageDimensionPublish LoadStage = "S1_dimension_publish"
	StageKeyReadBack      LoadStage = "S2_key_read_back"
	StageKeyResolution    LoadStage = "S3_key_resolution"
	StageFactProjection   LoadStage = "S4_fact_projection"
	StageFactPublish      LoadStage = "S5_fact_publish"
)

// StageError сообщает, на каком этапе загрузки прервался запуск
type StageError struct {
	Stage LoadStage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("load stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ClassifyQueryError отличает недоступную базу данных от запроса, который
// ее схема не может выполнить (нет таблицы или столбца). what - имя запроса.
func ClassifyQueryError(ctx context.Context, db *sql.DB, what string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnectivity, what, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, what, err)
}
