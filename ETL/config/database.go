package config

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/LilVoxy/retail_etl/ETL/models"
)

// DBConnections хранит подключения к обеим базам данных
type DBConnections struct {
	SourceDB    *sql.DB
	WarehouseDB *sql.DB
}

// DSN строит строку подключения для конкретного драйвера
func (c DatabaseConfig) DSN() string {
	if c.DSNOverride != "" {
		return c.DSNOverride
	}

	switch c.Driver {
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		cfg.DBName = c.DBName
		cfg.ParseTime = true
		return cfg.FormatDSN()
	case "postgres", "pgx":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:   "/" + c.DBName,
		}
		if c.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
		}
		return u.String()
	default:
		return c.DBName
	}
}

// Open открывает и проверяет пул подключений для c
func (c DatabaseConfig) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(c.Driver, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrConnectivity, c.Driver, err)
	}

	// Настройки пула подключений
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s database %q: %v", models.ErrConnectivity, c.Driver, c.DBName, err)
	}

	return db, nil
}

// ConnectDatabases открывает подключения к источнику и хранилищу
func ConnectDatabases(ctx context.Context, config ETLConfig) (*DBConnections, error) {
	var connections DBConnections
	var err error

	// Исходная (операционная) база данных
	connections.SourceDB, err = config.SourceConfig.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("source database: %w", err)
	}

	// База данных хранилища
	connections.WarehouseDB, err = config.WarehouseConfig.Open(ctx)
	if err != nil {
		// Закрываем первое подключение при ошибке
		connections.SourceDB.Close()
		return nil, fmt.Errorf("warehouse database: %w", err)
	}

	return &connections, nil
}

// CloseDatabases закрывает оба подключения и возвращает первую ошибку
func CloseDatabases(connections *DBConnections) error {
	var firstErr error

	if connections.SourceDB != nil {
		if err := connections.SourceDB.Close(); err != nil {
			firstErr = fmt.Errorf("close source database: %w", err)
		}
	}

	if connections.WarehouseDB != nil {
		if err := connections.WarehouseDB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close warehouse database: %w", err)
		}
	}

	return firstErr
}
