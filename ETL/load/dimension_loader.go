package load

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/retail_etl/ETL/config"
	"github.com/LilVoxy/retail_etl/ETL/metrics"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// KeyMaps сопоставляет натуральные ключи суррогатным ключам хранилища
type KeyMaps struct {
	Customers map[int64]int64
	Products  map[int64]int64
	Locations map[int64]int64
	Dates     map[string]int64
}

// таблицы измерений
func customerSpec(name string) tableSpec {
	return tableSpec{
		name:         name,
		surrogateKey: "sk_customer",
		columns: []column{
			{"customer_id", bigint},
			{"customer_name", text},
			{"age", bigint},
			{"gender", text},
			{"customer_category", text},
		},
	}
}

func productSpec(name string) tableSpec {
	return tableSpec{
		name:         name,
		surrogateKey: "sk_product",
		columns: []column{
			{"product_id", bigint},
			{"product_name", text},
			{"product_category", text},
		},
	}
}

func locationSpec(name string) tableSpec {
	return tableSpec{
		name:         name,
		surrogateKey: "sk_location",
		columns: []column{
			{"location_id", bigint},
			{"city", text},
			{"state", text},
			{"region", text},
		},
	}
}

func timeSpec(name string) tableSpec {
	return tableSpec{
		name:         name,
		surrogateKey: "sk_time",
		columns: []column{
			{"sale_date", date},
			{"year", integer},
			{"month", integer},
			{"day", integer},
			{"quarter", integer},
		},
	}
}

// DimensionLoader публикует измерения и считывает их суррогатные ключи
type DimensionLoader struct {
	db        *sql.DB
	logger    *utils.ETLLogger
	publisher *TablePublisher
	tables    config.TableNames
}

// NewDimensionLoader создает новый экземпляр DimensionLoader
func NewDimensionLoader(db *sql.DB, publisher *TablePublisher, logger *utils.ETLLogger, tables config.TableNames) *DimensionLoader {
	return &DimensionLoader{
		db:        db,
		logger:    logger,
		publisher: publisher,
		tables:    tables,
	}
}

// Publish перезаписывает четыре таблицы измерений
func (l *DimensionLoader) Publish(ctx context.Context, data *models.TransformedData, runToken string) error {
	customers := make([][]any, len(data.Customers))
	for i, c := range data.Customers {
		customers[i] = []any{c.CustomerID, c.Name, c.Age, c.Gender, c.CustomerCategory}
	}

	products := make([][]any, len(data.Products))
	for i, p := range data.Products {
		products[i] = []any{p.ProductID, p.Name, p.ProductCategory}
	}

	locations := make([][]any, len(data.Locations))
	for i, loc := range data.Locations {
		locations[i] = []any{loc.LocationID, loc.City, loc.State, loc.Region}
	}

	dates := make([][]any, len(data.Dates))
	for i, d := range data.Dates {
		dates[i] = []any{d.DateKey(), d.Year, d.Month, d.DayOfMonth, d.Quarter}
	}

	for _, dim := range []struct {
		label string
		spec  tableSpec
		rows  [][]any
	}{
		{"customer", customerSpec(l.tables.Customer), customers},
		{"product", productSpec(l.tables.Product), products},
		{"location", locationSpec(l.tables.Location), locations},
		{"time", timeSpec(l.tables.Time), dates},
	} {
		startTime := time.Now()
		if err := l.publisher.Publish(ctx, dim.spec, dim.rows, runToken); err != nil {
			l.logger.Error("Ошибка при публикации измерения %s: %v", dim.label, err)
			return fmt.Errorf("publish %s dimension: %w", dim.label, err)
		}
		metrics.DimensionRowsPublished.WithLabelValues(dim.label).Add(float64(len(dim.rows)))
		l.logger.Info("Измерение %s опубликовано: %d строк за %v", dim.spec.name, len(dim.rows), time.Since(startTime))
	}

	return nil
}

// ReadBackKeys перечитывает все таблицы измерений и возвращает
// найденные соответствия натуральный ключ -> суррогатный ключ.
func (l *DimensionLoader) ReadBackKeys(ctx context.Context) (*KeyMaps, error) {
	var keys KeyMaps
	var err error

	if keys.Customers, err = readIntKeys(ctx, l.db, l.tables.Customer, "sk_customer", "customer_id"); err != nil {
		return nil, err
	}
	if keys.Products, err = readIntKeys(ctx, l.db, l.tables.Product, "sk_product", "product_id"); err != nil {
		return nil, err
	}
	if keys.Locations, err = readIntKeys(ctx, l.db, l.tables.Location, "sk_location", "location_id"); err != nil {
		return nil, err
	}
	if keys.Dates, err = readDateKeys(ctx, l.db, l.tables.Time); err != nil {
		return nil, err
	}

	l.logger.Debug("Суррогатные ключи прочитаны: %d клиентов, %d товаров, %d местоположений, %d дат",
		len(keys.Customers), len(keys.Products), len(keys.Locations), len(keys.Dates))
	return &keys, nil
}

// readIntKeys читает пары суррогатный/натуральный ключ из table
func readIntKeys(ctx context.Context, db *sql.DB, table, skColumn, keyColumn string) (map[int64]int64, error) {
	query := fmt.Sprintf("SELECT %s, %s FROM %s", skColumn, keyColumn, table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, models.ClassifyQueryError(ctx, db, "read back "+table, err)
	}
	defer rows.Close()

	keys := make(map[int64]int64)
	for rows.Next() {
		var sk, key int64
		if err := rows.Scan(&sk, &key); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", models.ErrSchemaMismatch, table, err)
		}
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("%w: %s holds %s %d more than once", models.ErrSchemaMismatch, table, keyColumn, key)
		}
		keys[key] = sk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return keys, nil
}

// readDateKeys читает пары sk_time и sale_date из измерения времени
func readDateKeys(ctx context.Context, db *sql.DB, table string) (map[string]int64, error) {
	query := fmt.Sprintf("SELECT sk_time, sale_date FROM %s", table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, models.ClassifyQueryError(ctx, db, "read back "+table, err)
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var sk int64
		var saleDate models.DateText
		if err := rows.Scan(&sk, &saleDate); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", models.ErrSchemaMismatch, table, err)
		}
		if !saleDate.Valid {
			return nil, fmt.Errorf("%w: %s holds a NULL sale_date", models.ErrSchemaMismatch, table)
		}
		key := normalizeDateKey(saleDate.Value)
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("%w: %s holds sale_date %s more than once", models.ErrSchemaMismatch, table, key)
		}
		keys[key] = sk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return keys, nil
}

// normalizeDateKey отрезает время суток, которое некоторые драйверы добавляют к DATE
func normalizeDateKey(v string) string {
	if len(v) > len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, v[:len(time.DateOnly)]); err == nil {
			return v[:len(time.DateOnly)]
		}
	}
	return v
}
