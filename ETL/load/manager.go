package load

import (
	"context"
	"database/sql"
	"time"

	"github.com/LilVoxy/retail_etl/ETL/config"
	"github.com/LilVoxy/retail_etl/ETL/dialect"
	"github.com/LilVoxy/retail_etl/ETL/metrics"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// LoadManager выполняет фазу Load: публикует измерения (S1), считывает их
// суррогатные ключи (S2), сопоставляет ключи фактов (S3), проецирует факты (S4)
// и публикует их (S5). S2 начинается только после фиксации всех измерений S1.
type LoadManager struct {
	logger      *utils.ETLLogger
	notifier    utils.Notifier
	dimLoader   *DimensionLoader
	factLoader  *FactLoader
	rejectsPath string
}

// NewLoadManager создает новый экземпляр LoadManager
func NewLoadManager(db *sql.DB, d dialect.Dialect, cfg config.ETLConfig, logger *utils.ETLLogger, notifier utils.Notifier) *LoadManager {
	publisher := NewTablePublisher(db, d, logger, cfg.BatchSize)
	return &LoadManager{
		logger:      logger,
		notifier:    notifier,
		dimLoader:   NewDimensionLoader(db, publisher, logger, cfg.Tables),
		factLoader:  NewFactLoader(publisher, logger, cfg.Tables.Facts),
		rejectsPath: cfg.RejectsPath,
	}
}

// Load выполняет S1-S5. Первый неудачный этап прерывает фазу с
// *models.StageError; уже опубликованное не откатывается.
func (m *LoadManager) Load(ctx context.Context, runID string, transformedData *models.TransformedData) (*models.LoadResult, error) {
	startTime := time.Now()
	m.logger.Info("Начало фазы загрузки данных")

	runToken := stagingToken(runID)
	result := &models.LoadResult{
		Customers: len(transformedData.Customers),
		Products:  len(transformedData.Products),
		Locations: len(transformedData.Locations),
		Dates:     len(transformedData.Dates),
	}

	// S1. Измерения
	if err := m.dimLoader.Publish(ctx, transformedData, runToken); err != nil {
		return nil, m.fail(models.StageDimensionPublish, err)
	}
	m.stageDone(runID, models.StageDimensionPublish, result.Customers+result.Products+result.Locations+result.Dates, nil)

	// S2. Суррогатные ключи, назначенные хранилищем
	keys, err := m.dimLoader.ReadBackKeys(ctx)
	if err != nil {
		return nil, m.fail(models.StageKeyReadBack, err)
	}
	m.stageDone(runID, models.StageKeyReadBack, len(keys.Customers)+len(keys.Products)+len(keys.Locations)+len(keys.Dates), nil)

	// S3 + S4. Inner join по натуральным ключам и проекция в строки фактов
	facts, rejected, unresolved := ResolveKeys(transformedData.Candidates, keys)
	result.Unresolved = unresolved
	m.reportUnresolved(runID, unresolved, rejected)
	m.stageDone(runID, models.StageKeyResolution, len(facts), map[string]int{
		"unresolved_customer": unresolved.Customer,
		"unresolved_product":  unresolved.Product,
		"unresolved_location": unresolved.Location,
		"unresolved_time":     unresolved.Time,
	})
	m.stageDone(runID, models.StageFactProjection, len(facts), nil)

	// S5. Факты
	if err := m.factLoader.Publish(ctx, facts, runToken); err != nil {
		return nil, m.fail(models.StageFactPublish, err)
	}
	result.Facts = len(facts)
	m.stageDone(runID, models.StageFactPublish, len(facts), nil)

	m.logger.LogLoadComplete(result.Facts, unresolved.Total(), time.Since(startTime))
	return result, nil
}

// reportUnresolved делает видимыми строки, отброшенные при соединении по ключам
func (m *LoadManager) reportUnresolved(runID string, unresolved models.UnresolvedCounts, rejected []Rejected) {
	metrics.UnresolvedFactRows.WithLabelValues("customer").Add(float64(unresolved.Customer))
	metrics.UnresolvedFactRows.WithLabelValues("product").Add(float64(unresolved.Product))
	metrics.UnresolvedFactRows.WithLabelValues("location").Add(float64(unresolved.Location))
	metrics.UnresolvedFactRows.WithLabelValues("time").Add(float64(unresolved.Time))

	if unresolved.Total() == 0 {
		return
	}

	m.logger.Warn("%d кандидатов в факты отброшено без совпадения в измерениях (customer=%d product=%d location=%d time=%d)",
		unresolved.Total(), unresolved.Customer, unresolved.Product, unresolved.Location, unresolved.Time)

	if m.rejectsPath == "" {
		return
	}
	path, err := WriteRejects(m.rejectsPath, runID, rejected)
	if err != nil {
		// Файл отброшенных строк нужен только для диагностики
		m.logger.Error("Не удалось записать файл отброшенных строк: %v", err)
		return
	}
	m.logger.Info("Отброшенные кандидаты записаны в %s", path)
}

func (m *LoadManager) stageDone(runID string, stage models.LoadStage, rows int, details map[string]int) {
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(utils.Milestone{
		RunID:   runID,
		Phase:   utils.PhaseLoadStage,
		Stage:   string(stage),
		Rows:    rows,
		Details: details,
		At:      time.Now(),
	})
}

func (m *LoadManager) fail(stage models.LoadStage, err error) error {
	m.logger.Error("Загрузка прервана на этапе %s: %v", stage, err)
	return &models.StageError{Stage: stage, Err: err}
}

// stagingToken строит из run id короткий суффикс, допустимый в имени таблицы
func stagingToken(runID string) string {
	token := make([]byte, 0, 8)
	for i := 0; i < len(runID) && len(token) < 8; i++ {
		c := runID[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') {
			token = append(token, c)
		}
	}
	if len(token) == 0 {
		return "run"
	}
	return string(token)
}
