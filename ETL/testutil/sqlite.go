// Package testutil создает временные базы SQLite для тестов.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// SQLitePath возвращает путь к файлу базы в каталоге теста
func SQLitePath(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name) + "?_pragma=busy_timeout(5000)"
}

// OpenSQLite открывает новую базу SQLite, закрываемую в конце теста
func OpenSQLite(t testing.TB, name string) *sql.DB {
	t.Helper()
	return Open(t, SQLitePath(t, name))
}

// Open открывает базу SQLite по пути path, закрываемую в конце теста
func Open(t testing.TB, path string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Ping())
	return db
}

// SourceSchema - структура операционной базы, которую читает извлекатель
const SourceSchema = `
CREATE TABLE product_categories (
	product_category_id INTEGER PRIMARY KEY,
	product_category_name TEXT NOT NULL
);
CREATE TABLE products (
	product_id INTEGER PRIMARY KEY,
	product_name TEXT NULL,
	product_category_id INTEGER NOT NULL
);
CREATE TABLE product_suppliers (
	product_id INTEGER NOT NULL,
	unit_purchase_cost NUMERIC NULL
);
CREATE TABLE customer_categories (
	customer_category_id INTEGER PRIMARY KEY,
	customer_category_name TEXT NOT NULL
);
CREATE TABLE locations (
	location_id INTEGER PRIMARY KEY,
	city TEXT NOT NULL,
	state TEXT NOT NULL,
	region TEXT NOT NULL
);
CREATE TABLE customers (
	customer_id INTEGER PRIMARY KEY,
	customer_name TEXT NOT NULL,
	age INTEGER NULL,
	gender TEXT NULL,
	customer_category_id INTEGER NOT NULL,
	location_id INTEGER NOT NULL
);
CREATE TABLE sales (
	sale_id INTEGER PRIMARY KEY,
	sale_date TEXT NULL,
	customer_id INTEGER NOT NULL
);
CREATE TABLE sale_items (
	sale_item_id INTEGER PRIMARY KEY,
	sale_id INTEGER NOT NULL,
	product_id INTEGER NOT NULL,
	quantity INTEGER NOT NULL,
	sale_price NUMERIC NOT NULL
);
`

// ScenarioSeed содержит двух клиентов и два товара в одном местоположении.
// У продажи 3 некорректная дата, у товара 20 нет закупочной цены.
const ScenarioSeed = `
INSERT INTO product_categories VALUES (1, 'Hardware');
INSERT INTO products VALUES (10, 'Hammer', 1), (20, NULL, 1);
INSERT INTO product_suppliers VALUES (10, 4.5);
INSERT INTO customer_categories VALUES (1, 'Retail');
INSERT INTO locations VALUES (1, 'Recife', 'pe', 'Northeast');
INSERT INTO customers VALUES
	(1, 'Ana', 34, 'F', 1, 1),
	(2, 'Bruno', NULL, 'M', 1, 1);
INSERT INTO sales VALUES
	(1, '2023-01-15', 1),
	(2, '2023-01-16', 2),
	(3, '2023-13-45', 1);
INSERT INTO sale_items VALUES
	(1, 1, 10, 3, 10.005),
	(2, 2, 20, 2, 0.0125),
	(3, 3, 10, 1, 12.00);
`

// SeedSource создает операционную схему в db и загружает данные сценария
func SeedSource(t testing.TB, db *sql.DB) {
	t.Helper()
	Exec(t, db, SourceSchema)
	Exec(t, db, ScenarioSeed)
}

// Exec выполняет скрипт из запросов, разделенных ;
func Exec(t testing.TB, db *sql.DB, script string) {
	t.Helper()
	_, err := db.Exec(script)
	require.NoError(t, err)
}
