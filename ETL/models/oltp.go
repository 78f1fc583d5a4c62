package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceRecord - одна проданная позиция из операционной базы, уже
// денормализованная запросом извлечения. Nullable-столбцы остаются
// nullable, пока их не исправит фаза Transform.
type SourceRecord struct {
	SaleID           int64
	SaleDate         DateText
	ProductID        int64
	Quantity         int64
	UnitPrice        decimal.Decimal
	ProductName      sql.Null[string]
	ProductCategory  string
	CustomerID       int64
	CustomerName     string
	Age              sql.Null[int64]
	Gender           sql.Null[string]
	CustomerCategory string
	LocationID       int64
	City             string
	State            string
	Region           string
	UnitCost         decimal.NullDecimal
}

// ExtractedData содержит все, что фаза Extract прочитала из источника
type ExtractedData struct {
	Records     []SourceRecord
	ExtractedAt time.Time
}

// DateText хранит столбец даты в том виде, в каком его вернул драйвер. Текст
// и байты проверяет фаза Transform; time.Time сохраняется как есть в Time
// с флагом Typed, так как драйвер уже разобрал дату.
type DateText struct {
	Value string
	Valid bool

	Time  time.Time
	Typed bool
}

// Scan реализует sql.Scanner
func (d *DateText) Scan(src any) error {
	d.Time, d.Typed = time.Time{}, false

	switch v := src.(type) {
	case nil:
		d.Value, d.Valid = "", false
	case string:
		d.Value, d.Valid = v, true
	case []byte:
		d.Value, d.Valid = string(v), true
	case time.Time:
		d.Value, d.Valid = v.Format(time.DateOnly), true
		d.Time, d.Typed = v, true
	default:
		return fmt.Errorf("unsupported date source type %T", src)
	}
	return nil
}
