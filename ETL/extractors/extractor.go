package extractors

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/LilVoxy/retail_etl/ETL/metrics"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// salesQuery возвращает одну строку на каждую проданную позицию. Закупочная
// цена присоединяется через LEFT JOIN: товары без нее остаются с NULL.
const salesQuery = `
	SELECT
		s.sale_id,
		s.sale_date,
		si.product_id,
		si.quantity,
		si.sale_price,
		p.product_name,
		pc.product_category_name,
		c.customer_id,
		c.customer_name,
		c.age,
		c.gender,
		cc.customer_category_name,
		l.location_id,
		l.city,
		l.state,
		l.region,
		ps.unit_purchase_cost
	FROM sales s
	JOIN sale_items si ON s.sale_id = si.sale_id
	JOIN products p ON si.product_id = p.product_id
	JOIN product_categories pc ON p.product_category_id = pc.product_category_id
	JOIN customers c ON s.customer_id = c.customer_id
	JOIN customer_categories cc ON c.customer_category_id = cc.customer_category_id
	JOIN locations l ON c.location_id = l.location_id
	LEFT JOIN product_suppliers ps ON p.product_id = ps.product_id
`

// expectedColumns - столбцы, которые salesQuery должен вернуть, по порядку
var expectedColumns = []string{
	"sale_id", "sale_date", "product_id", "quantity", "sale_price",
	"product_name", "product_category_name",
	"customer_id", "customer_name", "age", "gender", "customer_category_name",
	"location_id", "city", "state", "region",
	"unit_purchase_cost",
}

// Extractor читает денормализованный набор продаж из операционной базы
type Extractor struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewExtractor создает новый экземпляр Extractor
func NewExtractor(db *sql.DB, logger *utils.ETLLogger) *Extractor {
	return &Extractor{
		db:     db,
		logger: logger,
	}
}

// Extract выполняет сводный запрос и возвращает все позиции продаж.
// Здесь ничего не фильтруется, не сортируется и не дедуплицируется.
func (e *Extractor) Extract(ctx context.Context) (*models.ExtractedData, error) {
	startTime := time.Now()
	e.logger.LogExtractStart()

	rows, err := e.db.QueryContext(ctx, salesQuery)
	if err != nil {
		e.logger.Error("Ошибка при выполнении запроса продаж: %v", err)
		return nil, models.ClassifyQueryError(ctx, e.db, "query sales", err)
	}
	defer rows.Close()

	// Scan ниже позиционный, поэтому набор столбцов должен совпадать точно
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read sales columns: %w", err)
	}
	if err := checkColumns(columns); err != nil {
		e.logger.Error("Запрос продаж вернул неожиданные столбцы: %v", err)
		return nil, err
	}

	var extractedData models.ExtractedData
	for rows.Next() {
		var r models.SourceRecord
		if err := rows.Scan(
			&r.SaleID,
			&r.SaleDate,
			&r.ProductID,
			&r.Quantity,
			&r.UnitPrice,
			&r.ProductName,
			&r.ProductCategory,
			&r.CustomerID,
			&r.CustomerName,
			&r.Age,
			&r.Gender,
			&r.CustomerCategory,
			&r.LocationID,
			&r.City,
			&r.State,
			&r.Region,
			&r.UnitCost,
		); err != nil {
			e.logger.Error("Ошибка при сканировании строки продаж: %v", err)
			return nil, fmt.Errorf("%w: scan sales row: %v", models.ErrSchemaMismatch, err)
		}
		extractedData.Records = append(extractedData.Records, r)
	}

	// Проверяем ошибки после итерации
	if err := rows.Err(); err != nil {
		e.logger.Error("Ошибка при итерации по строкам продаж: %v", err)
		return nil, fmt.Errorf("iterate sales rows: %w", err)
	}

	extractedData.ExtractedAt = time.Now()
	metrics.SourceRowsExtracted.Add(float64(len(extractedData.Records)))
	e.logger.LogExtractComplete(len(extractedData.Records), time.Since(startTime))

	return &extractedData, nil
}

// checkColumns сравнивает полученные имена столбцов с expectedColumns
func checkColumns(columns []string) error {
	got := make([]string, len(columns))
	for i, c := range columns {
		got[i] = strings.ToLower(c)
	}
	if !slices.Equal(got, expectedColumns) {
		return fmt.Errorf("%w: sales query returned columns %v, want %v", models.ErrSchemaMismatch, got, expectedColumns)
	}
	return nil
}
