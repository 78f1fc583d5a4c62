package transform

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/retail_etl/ETL/models"
)

// moneyScale - число знаков после запятой в вычисленных суммах
const moneyScale = 2

// TotalValue возвращает quantity × unit price с банковским округлением до двух знаков.
// 3 × 10.005 = 30.015 дает 30.02; 2 × 0.0125 = 0.025 дает 0.02.
func TotalValue(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).RoundBank(moneyScale)
}

// ParseSaleDate разбирает raw по формату layout. Принимается только точное совпадение;
// результат усекается до календарной даты в UTC.
func ParseSaleDate(raw string, layout string) (time.Time, bool) {
	t, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// ResolveSaleDate возвращает календарную дату d. С layout сверяются только
// текстовые значения; дата, уже типизированная драйвером, берется как есть.
func ResolveSaleDate(d models.DateText, layout string) (time.Time, bool) {
	switch {
	case !d.Valid:
		return time.Time{}, false
	case d.Typed:
		return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC), true
	default:
		return ParseSaleDate(d.Value, layout)
	}
}
