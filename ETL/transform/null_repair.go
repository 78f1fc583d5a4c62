package transform

import (
	"database/sql"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/retail_etl/ETL/models"
)

// Значения, подставляемые вместо отсутствующих
const (
	GenderNotInformed  = "Not informed"
	ProductNotInformed = "Product not informed"
)

// DefaultAgeFallback используется, если ни в одной строке набора нет возраста
const DefaultAgeFallback int64 = 35

// fillNull возвращает значение v или def, если v равно NULL
func fillNull[T any](v sql.Null[T], def T) (T, bool) {
	if v.Valid {
		return v.V, false
	}
	return def, true
}

// fillDecimal возвращает значение v или def, если v равно NULL
func fillDecimal(v decimal.NullDecimal, def decimal.Decimal) (decimal.Decimal, bool) {
	if v.Valid {
		return v.Decimal, false
	}
	return def, true
}

// MedianAge вычисляет медиану всех непустых возрастов в records, усеченную
// до целого. При четном количестве берется среднее двух средних значений.
// ok равно false, если все возрасты пустые.
func MedianAge(records []models.SourceRecord) (median int64, ok bool) {
	ages := make([]int64, 0, len(records))
	for _, r := range records {
		if r.Age.Valid {
			ages = append(ages, r.Age.V)
		}
	}
	if len(ages) == 0 {
		return 0, false
	}

	slices.Sort(ages)
	mid := len(ages) / 2
	if len(ages)%2 == 1 {
		return ages[mid], true
	}
	return (ages[mid-1] + ages[mid]) / 2, true
}
