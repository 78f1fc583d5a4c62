package utils

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ETLLogger представляет логгер для ETL-процесса
type ETLLogger struct {
	sugar     *zap.SugaredLogger
	isVerbose bool
}

// NewETLLogger создает логгер, пишущий в stderr и, если задан logFile,
// дописывающий JSON-строки в этот файл.
func NewETLLogger(verbose bool, logFile string) (*ETLLogger, error) {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", logFile, err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), level))
	}

	return newFromCore(zapcore.NewTee(cores...), verbose), nil
}

func newFromCore(core zapcore.Core, verbose bool) *ETLLogger {
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &ETLLogger{sugar: logger.Sugar(), isVerbose: verbose}
}

// NewNopLogger возвращает логгер, который ничего не пишет
func NewNopLogger() *ETLLogger {
	return &ETLLogger{sugar: zap.NewNop().Sugar()}
}

// Info логирует информационное сообщение
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warn логирует сообщение об отброшенных или исправленных данных
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error логирует сообщение об ошибке
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.sugar.Debugf(format, v...)
}

// With возвращает логгер, добавляющий пары ключ/значение к каждой записи
func (l *ETLLogger) With(keysAndValues ...interface{}) *ETLLogger {
	return &ETLLogger{sugar: l.sugar.With(keysAndValues...), isVerbose: l.isVerbose}
}

// Sync сбрасывает буферизованные записи
func (l *ETLLogger) Sync() {
	_ = l.sugar.Sync()
}

// LogETLStart логирует начало ETL-процесса
func (l *ETLLogger) LogETLStart(runID string) {
	l.Info("Начало ETL-процесса %s", runID)
}

// LogETLComplete логирует завершение ETL-процесса
func (l *ETLLogger) LogETLComplete(startTime time.Time, extracted, facts int) {
	l.Info("ETL-процесс завершен за %v: %d исходных строк, %d строк фактов загружено", time.Since(startTime), extracted, facts)
}

// LogExtractStart логирует начало фазы извлечения данных
func (l *ETLLogger) LogExtractStart() {
	l.Info("Начало фазы извлечения данных")
}

// LogExtractComplete логирует завершение фазы извлечения данных
func (l *ETLLogger) LogExtractComplete(records int, duration time.Duration) {
	l.Info("Фаза извлечения данных завершена за %v: %d исходных строк", duration, records)
}

// LogTransformComplete логирует завершение фазы преобразования
func (l *ETLLogger) LogTransformComplete(rowsIn, rowsOut, droppedDates int, duration time.Duration) {
	l.Info("Фаза преобразования завершена за %v: %d строк на входе, %d на выходе, %d отброшено из-за некорректной даты продажи",
		duration, rowsIn, rowsOut, droppedDates)
}

// LogLoadComplete логирует завершение фазы загрузки
func (l *ETLLogger) LogLoadComplete(facts, unresolved int, duration time.Duration) {
	l.Info("Фаза загрузки завершена за %v: %d строк фактов опубликовано, %d кандидатов без совпадения в измерениях",
		duration, facts, unresolved)
}
