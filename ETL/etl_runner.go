package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/LilVoxy/retail_etl/ETL/config"
	"github.com/LilVoxy/retail_etl/ETL/dialect"
	"github.com/LilVoxy/retail_etl/ETL/extractors"
	"github.com/LilVoxy/retail_etl/ETL/load"
	"github.com/LilVoxy/retail_etl/ETL/metrics"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/transform"
	"github.com/LilVoxy/retail_etl/ETL/utils"
	"github.com/LilVoxy/retail_etl/routes"
	"github.com/LilVoxy/retail_etl/websocket"
)

// Фазы, записываемые в failed_stage вне фазы Load
const (
	stageExtract   = "extract"
	stageTransform = "transform"
)

type ETLRunner struct {
	config        config.ETLConfig
	dbConnections *config.DBConnections
	logger        *utils.ETLLogger
	notifier      utils.Notifier
	extractor     *extractors.Extractor
	transformer   *transform.Transformer
	loadManager   *load.LoadManager
	etlLogRepo    models.ETLLogRepository
}

// NewETLRunner подключается к обеим базам данных и собирает три фазы.
// Этапы выполнения уходят в логгер и в notifier, если он задан.
func NewETLRunner(ctx context.Context, etlConfig config.ETLConfig, logger *utils.ETLLogger, notifier utils.Notifier) (*ETLRunner, error) {
	logger.Info("Инициализация ETL-процесса")

	warehouseDialect, err := dialect.For(etlConfig.WarehouseConfig.Driver)
	if err != nil {
		return nil, err
	}

	// Подключаемся к базам данных
	connections, err := config.ConnectDatabases(ctx, etlConfig)
	if err != nil {
		return nil, fmt.Errorf("connect databases: %w", err)
	}

	// История запусков
	etlLogRepo := models.NewSQLETLLogRepository(connections.WarehouseDB, warehouseDialect, etlConfig.Tables.RunLog)
	if err := etlLogRepo.CreateETLLogTable(ctx); err != nil {
		config.CloseDatabases(connections)
		return nil, fmt.Errorf("create run log table: %w", err)
	}

	notifiers := utils.MultiNotifier{logger}
	if notifier != nil {
		notifiers = append(notifiers, notifier)
	}

	return &ETLRunner{
		config:        etlConfig,
		dbConnections: connections,
		logger:        logger,
		notifier:      notifiers,
		extractor:     extractors.NewExtractor(connections.SourceDB, logger),
		transformer:   transform.NewTransformer(etlConfig.Transform, logger),
		loadManager:   load.NewLoadManager(connections.WarehouseDB, warehouseDialect, etlConfig, logger, notifiers),
		etlLogRepo:    etlLogRepo,
	}, nil
}

// Close закрывает подключения к базам данных
func (r *ETLRunner) Close() {
	r.logger.Info("Завершение работы ETL-процесса")
	if err := config.CloseDatabases(r.dbConnections); err != nil {
		r.logger.Error("%v", err)
	}
}

// ExecuteETL выполняет extract, transform и load один раз, полностью
// перезаписывая схему «звезда» в хранилище.
func (r *ETLRunner) ExecuteETL(ctx context.Context) error {
	runID := uuid.NewString()
	startTime := time.Now()
	r.logger.LogETLStart(runID)

	if err := r.etlLogRepo.CreateLogEntry(ctx, runID, startTime); err != nil {
		r.logger.Error("Не удалось создать запись в журнале запусков: %v", err)
		metrics.RunsTotal.WithLabelValues(models.RunStatusFailed).Inc()
		return fmt.Errorf("create run log entry: %w", err)
	}
	r.milestone(runID, utils.PhaseRunStarted, 0, nil)

	// 1. Извлечение
	extractedData, err := r.extractor.Extract(ctx)
	if err != nil {
		return r.fail(ctx, runID, startTime, stageExtract, err)
	}
	r.milestone(runID, utils.PhaseExtracted, len(extractedData.Records), nil)

	// 2. Преобразование
	transformedData, err := r.transformer.Transform(ctx, extractedData)
	if err != nil {
		return r.fail(ctx, runID, startTime, stageTransform, err)
	}
	report := transformedData.Report
	r.milestone(runID, utils.PhaseTransformed, len(transformedData.Candidates), map[string]int{
		"dropped_invalid_date": report.DroppedInvalidDate,
		"customers":            len(transformedData.Customers),
		"products":             len(transformedData.Products),
		"locations":            len(transformedData.Locations),
		"dates":                len(transformedData.Dates),
	})

	// 3. Загрузка
	result, err := r.loadManager.Load(ctx, runID, transformedData)
	if err != nil {
		stage := "load"
		var stageErr *models.StageError
		if errors.As(err, &stageErr) {
			stage = string(stageErr.Stage)
		}
		return r.fail(ctx, runID, startTime, stage, err)
	}
	r.milestone(runID, utils.PhaseLoaded, result.Facts, map[string]int{
		"unresolved": result.Unresolved.Total(),
	})

	endTime := time.Now()
	counts := models.RunCounts{
		SourceRows:         len(extractedData.Records),
		CandidateRows:      len(transformedData.Candidates),
		DroppedInvalidDate: report.DroppedInvalidDate,
		UnresolvedRows:     result.Unresolved.Total(),
		FactsLoaded:        result.Facts,
	}
	if err := r.etlLogRepo.UpdateLogEntrySuccess(ctx, runID, endTime, counts); err != nil {
		r.logger.Error("Не удалось обновить запись в журнале запусков: %v", err)
	}

	metrics.RunsTotal.WithLabelValues(models.RunStatusSuccess).Inc()
	metrics.RunDuration.Observe(endTime.Sub(startTime).Seconds())
	metrics.LastSuccessTimestamp.Set(float64(endTime.Unix()))

	r.logger.LogETLComplete(startTime, len(extractedData.Records), result.Facts)
	return nil
}

// fail записывает неудачный запуск и возвращает err с указанием этапа
func (r *ETLRunner) fail(ctx context.Context, runID string, startTime time.Time, stage string, err error) error {
	switch {
	case errors.Is(err, models.ErrConnectivity):
		r.logger.Error("Запуск %s завершился ошибкой на этапе %s: база данных недоступна: %v", runID, stage, err)
	case errors.Is(err, models.ErrSchemaMismatch):
		r.logger.Error("Запуск %s завершился ошибкой на этапе %s: несоответствие схемы: %v", runID, stage, err)
	default:
		r.logger.Error("Запуск %s завершился ошибкой на этапе %s: %v", runID, stage, err)
	}

	r.notifier.Notify(utils.Milestone{
		RunID: runID,
		Phase: utils.PhaseRunFailed,
		Stage: stage,
		Error: err.Error(),
		At:    time.Now(),
	})

	endTime := time.Now()
	// Журнал запусков пишется даже при отмененном ctx
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if logErr := r.etlLogRepo.UpdateLogEntryFailure(logCtx, runID, endTime, stage, err.Error()); logErr != nil {
		r.logger.Error("Не удалось обновить запись в журнале запусков: %v", logErr)
	}

	metrics.RunsTotal.WithLabelValues(models.RunStatusFailed).Inc()
	metrics.RunDuration.Observe(endTime.Sub(startTime).Seconds())

	return fmt.Errorf("%s phase: %w", stage, err)
}

func (r *ETLRunner) milestone(runID, phase string, rows int, details map[string]int) {
	r.notifier.Notify(utils.Milestone{
		RunID:   runID,
		Phase:   phase,
		Rows:    rows,
		Details: details,
		At:      time.Now(),
	})
}

// StartScheduler запускает ETL каждые RunInterval, пока ctx не завершен
func (r *ETLRunner) StartScheduler(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)
	// Срабатывание во время идущего запуска пропускается
	scheduler.SingletonModeAll()

	r.logger.Info("Запуск планировщика ETL с интервалом %v", r.config.RunInterval)

	_, err := scheduler.Every(r.config.RunInterval).Do(func() {
		r.logger.Info("Запуск ETL по расписанию")
		if err := r.ExecuteETL(ctx); err != nil {
			r.logger.Error("Ошибка при запуске ETL по расписанию: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("configure scheduler: %w", err)
	}

	scheduler.StartAsync()

	<-ctx.Done()

	scheduler.Stop()
	r.logger.Info("Планировщик ETL остановлен")
	return nil
}

// Serve запускает планировщик вместе с сервером статуса, пока ctx не завершен
func (r *ETLRunner) Serve(ctx context.Context, hub *websocket.Manager) error {
	go hub.Run(ctx)

	router := mux.NewRouter()
	routes.SetupRoutes(router, r.etlLogRepo, hub, r.logger)

	server := &http.Server{
		Addr:         r.config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		r.logger.Info("Сервер статуса слушает %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err, ok := <-serverErr; ok {
			r.logger.Error("Ошибка сервера статуса: %v", err)
			cancel()
		}
	}()

	if err := r.StartScheduler(schedCtx); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func main() {
	modePtr := flag.String("mode", "once", "Run mode: once, scheduled or serve")
	configPtr := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	os.Exit(run(*modePtr, *configPtr))
}

func run(mode, configPath string) int {
	etlConfig, err := config.GetConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logger, err := utils.NewETLLogger(etlConfig.EnableDetailedLogging, etlConfig.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer logger.Sync()

	switch mode {
	case "once", "scheduled", "serve":
	default:
		logger.Error("Неизвестный режим %q, ожидается once, scheduled или serve", mode)
		return 2
	}
	logger.Info("Запуск ETL-процесса в режиме %s", mode)

	// Отменяется по SIGINT или SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *websocket.Manager
	var notifier utils.Notifier
	if mode == "serve" {
		hub = websocket.NewManager(logger)
		notifier = hub
	}

	runner, err := NewETLRunner(ctx, etlConfig, logger, notifier)
	if err != nil {
		logger.Error("Не удалось создать ETL-процесс: %v", err)
		return 1
	}
	defer runner.Close()

	switch mode {
	case "once":
		err = runner.ExecuteETL(ctx)
	case "scheduled":
		err = runner.StartScheduler(ctx)
	case "serve":
		err = runner.Serve(ctx, hub)
	}

	if err != nil {
		logger.Error("Ошибка ETL-процесса: %v", err)
		return 1
	}
	logger.Info("ETL-процесс завершен")
	return 0
}
