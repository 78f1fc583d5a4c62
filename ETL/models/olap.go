package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerDimension - строка измерения клиентов.
// SK остается нулевым, пока строка не перечитана из хранилища.
type CustomerDimension struct {
	SK               int64
	CustomerID       int64
	Name             string
	Age              int64
	Gender           string
	CustomerCategory string
}

// ProductDimension - строка измерения товаров
type ProductDimension struct {
	SK              int64
	ProductID       int64
	Name            string
	ProductCategory string
}

// LocationDimension - строка измерения местоположений
type LocationDimension struct {
	SK         int64
	LocationID int64
	City       string
	State      string
	Region     string
}

// TimeDimension - строка измерения времени, одна на календарную дату
type TimeDimension struct {
	SK         int64
	FullDate   time.Time
	Year       int
	Month      int
	DayOfMonth int
	Quarter    int
}

// DateKey возвращает натуральный ключ измерения времени
func (t TimeDimension) DateKey() string {
	return t.FullDate.Format(time.DateOnly)
}

// FactCandidate - очищенная позиция продажи, ожидающая суррогатных ключей.
// Все описательные столбцы сохраняются, чтобы загрузчик мог по ним соединять.
type FactCandidate struct {
	SaleID           int64
	SaleDate         time.Time
	ProductID        int64
	Quantity         int64
	UnitPrice        decimal.Decimal
	TotalValue       decimal.Decimal
	ProductName      string
	ProductCategory  string
	CustomerID       int64
	CustomerName     string
	Age              int64
	Gender           string
	CustomerCategory string
	LocationID       int64
	City             string
	State            string
	Region           string
	UnitCost         decimal.Decimal
}

// DateKey возвращает дату продажи в виде ключа измерения времени
func (f FactCandidate) DateKey() string {
	return f.SaleDate.Format(time.DateOnly)
}

// SalesFact - строка таблицы фактов продаж. Все суррогатные ключи найдены.
type SalesFact struct {
	CustomerSK int64
	ProductSK  int64
	LocationSK int64
	TimeSK     int64
	SaleID     int64
	Quantity   int64
	UnitPrice  decimal.Decimal
	TotalValue decimal.Decimal
	UnitCost   decimal.Decimal
}
