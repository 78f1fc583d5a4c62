package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/LilVoxy/retail_etl/ETL/dialect"
)

// ETLConfig содержит конфигурацию ETL-процесса
type ETLConfig struct {
	// Подключение к операционной (исходной) базе данных
	SourceConfig DatabaseConfig `yaml:"source" envPrefix:"ETL_SOURCE_"`

	// Подключение к хранилищу (целевой базе данных)
	WarehouseConfig DatabaseConfig `yaml:"warehouse" envPrefix:"ETL_WAREHOUSE_"`

	// Имена таблиц хранилища
	Tables TableNames `yaml:"tables" envPrefix:"ETL_TABLE_"`

	// Настройки фазы Transform
	Transform TransformConfig `yaml:"transform" envPrefix:"ETL_TRANSFORM_"`

	// Интервал между запусками по расписанию
	RunInterval time.Duration `yaml:"run_interval" env:"ETL_RUN_INTERVAL"`

	// Максимальное число строк в одном INSERT
	BatchSize int `yaml:"batch_size" env:"ETL_BATCH_SIZE"`

	// Адрес сервера статуса в режиме serve
	HTTPAddr string `yaml:"http_addr" env:"ETL_HTTP_ADDR"`

	// Каталог для фактов, отброшенных при сопоставлении ключей; пустое значение отключает файл
	RejectsPath string `yaml:"rejects_path" env:"ETL_REJECTS_PATH"`

	// Необязательный JSON-файл лога в дополнение к stderr
	LogFile string `yaml:"log_file" env:"ETL_LOG_FILE"`

	// Включить отладочное логирование
	EnableDetailedLogging bool `yaml:"enable_detailed_logging" env:"ETL_DETAILED_LOGGING"`
}

// DatabaseConfig содержит настройки одного подключения к базе данных
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DRIVER"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"DBNAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`

	// DSNOverride заменяет все поля выше, кроме Driver
	DSNOverride string `yaml:"dsn" env:"DSN"`
}

// TableNames перечисляет таблицы схемы «звезда» в хранилище
type TableNames struct {
	Customer string `yaml:"customer" env:"CUSTOMER"`
	Product  string `yaml:"product" env:"PRODUCT"`
	Location string `yaml:"location" env:"LOCATION"`
	Time     string `yaml:"time" env:"TIME"`
	Facts    string `yaml:"facts" env:"FACTS"`
	RunLog   string `yaml:"run_log" env:"RUN_LOG"`
}

// TransformConfig содержит настройки очистки данных
type TransformConfig struct {
	// Число партиций, на которые делятся построчные этапы
	Partitions int `yaml:"partitions" env:"PARTITIONS"`

	// Формат, которому дата продажи должна соответствовать точно
	DateLayout string `yaml:"date_layout" env:"DATE_LAYOUT"`

	// Возраст, если ни у одной строки набора он не указан
	AgeFallback int64 `yaml:"age_fallback" env:"AGE_FALLBACK"`
}

// Значения конфигурации по умолчанию
var (
	DefaultSourceConfig = DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "password",
		DBName:   "crm",
		SSLMode:  "disable",
	}

	DefaultWarehouseConfig = DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "password",
		DBName:   "dw",
		SSLMode:  "disable",
	}

	DefaultTableNames = TableNames{
		Customer: "dim_customer",
		Product:  "dim_product",
		Location: "dim_location",
		Time:     "dim_time",
		Facts:    "fact_sales",
		RunLog:   "etl_run_log",
	}

	DefaultTransformConfig = TransformConfig{
		Partitions:  runtime.NumCPU(),
		DateLayout:  time.DateOnly,
		AgeFallback: 35,
	}

	DefaultETLConfig = ETLConfig{
		SourceConfig:          DefaultSourceConfig,
		WarehouseConfig:       DefaultWarehouseConfig,
		Tables:                DefaultTableNames,
		Transform:             DefaultTransformConfig,
		RunInterval:           24 * time.Hour,
		BatchSize:             1000,
		HTTPAddr:              ":8085",
		EnableDetailedLogging: false,
	}
)

// GetConfig возвращает конфигурацию ETL: значения по умолчанию, затем YAML-файл
// по пути path (если он задан), затем переменные окружения.
func GetConfig(path string) (ETLConfig, error) {
	config := DefaultETLConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate проверяет, что с конфигурацией можно выполнить запуск
func (c ETLConfig) Validate() error {
	var errs []error

	if _, err := dialect.For(c.SourceConfig.Driver); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if _, err := dialect.For(c.WarehouseConfig.Driver); err != nil {
		errs = append(errs, fmt.Errorf("warehouse: %w", err))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.Transform.Partitions <= 0 {
		errs = append(errs, fmt.Errorf("transform.partitions must be positive, got %d", c.Transform.Partitions))
	}
	if c.Transform.DateLayout == "" {
		errs = append(errs, errors.New("transform.date_layout is empty"))
	}
	if c.RunInterval <= 0 {
		errs = append(errs, fmt.Errorf("run_interval must be positive, got %v", c.RunInterval))
	}

	names := map[string]string{}
	for label, name := range map[string]string{
		"customer": c.Tables.Customer,
		"product":  c.Tables.Product,
		"location": c.Tables.Location,
		"time":     c.Tables.Time,
		"facts":    c.Tables.Facts,
		"run_log":  c.Tables.RunLog,
	} {
		if !validIdentifier(name) {
			errs = append(errs, fmt.Errorf("tables.%s: invalid table name %q", label, name))
			continue
		}
		if other, dup := names[name]; dup {
			errs = append(errs, fmt.Errorf("tables.%s and tables.%s share the name %q", label, other, name))
		}
		names[name] = label
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// validIdentifier принимает только простые SQL-идентификаторы: имена таблиц
// подставляются в DDL.
func validIdentifier(name string) bool {
	if name == "" || len(name) > 48 {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
