package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/retail_etl/ETL/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetConfig_Defaults(t *testing.T) {
	cfg, err := GetConfig("")
	require.NoError(t, err)

	require.Equal(t, "postgres", cfg.SourceConfig.Driver)
	require.Equal(t, "dw", cfg.WarehouseConfig.DBName)
	require.Equal(t, "fact_sales", cfg.Tables.Facts)
	require.Equal(t, time.DateOnly, cfg.Transform.DateLayout)
	require.Equal(t, int64(35), cfg.Transform.AgeFallback)
	require.Equal(t, 24*time.Hour, cfg.RunInterval)
}

func TestGetConfig_YAMLThenEnv(t *testing.T) {
	path := writeConfig(t, `
source:
  driver: mysql
  host: crm.internal
  port: 3306
  dbname: shop
warehouse:
  driver: sqlite
  dbname: /tmp/dw.db
tables:
  facts: fact_line_items
transform:
  partitions: 3
batch_size: 250
run_interval: 1h
`)
	t.Setenv("ETL_WAREHOUSE_DBNAME", "/var/lib/dw.db")
	t.Setenv("ETL_BATCH_SIZE", "500")

	cfg, err := GetConfig(path)
	require.NoError(t, err)

	require.Equal(t, "mysql", cfg.SourceConfig.Driver)
	require.Equal(t, "crm.internal", cfg.SourceConfig.Host)
	require.Equal(t, 3306, cfg.SourceConfig.Port)
	require.Equal(t, "sqlite", cfg.WarehouseConfig.Driver)
	require.Equal(t, "/var/lib/dw.db", cfg.WarehouseConfig.DBName)
	require.Equal(t, "fact_line_items", cfg.Tables.Facts)
	require.Equal(t, "dim_customer", cfg.Tables.Customer)
	require.Equal(t, 3, cfg.Transform.Partitions)
	require.Equal(t, 500, cfg.BatchSize)
	require.Equal(t, time.Hour, cfg.RunInterval)
}

func TestGetConfig_MissingFile(t *testing.T) {
	_, err := GetConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cfg := DefaultETLConfig
	cfg.SourceConfig.Driver = "oracle"
	cfg.BatchSize = 0
	cfg.Tables.Time = "dim time"
	cfg.Tables.Product = cfg.Tables.Customer

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, `unsupported driver "oracle"`)
	require.ErrorContains(t, err, "batch_size must be positive")
	require.ErrorContains(t, err, `invalid table name "dim time"`)
	require.ErrorContains(t, err, "share the name")

	require.NoError(t, DefaultETLConfig.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	mysqlCfg := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "etl", Password: "secret", DBName: "crm"}
	dsn := mysqlCfg.DSN()
	require.Contains(t, dsn, "etl:secret@tcp(db:3306)/crm?")
	require.Contains(t, dsn, "parseTime=true")

	pgCfg := DatabaseConfig{Driver: "pgx", Host: "db", Port: 5432, User: "etl", Password: "p@ss", DBName: "dw", SSLMode: "disable"}
	require.Equal(t, "postgres://etl:p%40ss@db:5432/dw?sslmode=disable", pgCfg.DSN())

	sqliteCfg := DatabaseConfig{Driver: "sqlite", DBName: "/tmp/dw.db"}
	require.Equal(t, "/tmp/dw.db", sqliteCfg.DSN())

	override := DatabaseConfig{Driver: "postgres", Host: "ignored", DSNOverride: "postgres://x@y/z"}
	require.Equal(t, "postgres://x@y/z", override.DSN())
}

func TestConnectDatabases_Unreachable(t *testing.T) {
	cfg := DefaultETLConfig
	cfg.SourceConfig = DatabaseConfig{Driver: "sqlite", DBName: filepath.Join(t.TempDir(), "missing-dir", "crm.db")}
	cfg.WarehouseConfig = DatabaseConfig{Driver: "sqlite", DBName: filepath.Join(t.TempDir(), "dw.db")}

	_, err := ConnectDatabases(t.Context(), cfg)
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrConnectivity))
}

func TestConnectDatabases_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultETLConfig
	cfg.SourceConfig = DatabaseConfig{Driver: "sqlite", DBName: filepath.Join(dir, "crm.db")}
	cfg.WarehouseConfig = DatabaseConfig{Driver: "sqlite", DBName: filepath.Join(dir, "dw.db")}

	conns, err := ConnectDatabases(t.Context(), cfg)
	require.NoError(t, err)
	require.NoError(t, conns.SourceDB.Ping())
	require.NoError(t, CloseDatabases(conns))
}
