package transform

import (
	"slices"
	"time"

	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// TimeDimensionProcessor строит измерение времени по датам продаж
type TimeDimensionProcessor struct {
	logger *utils.ETLLogger
}

// NewTimeDimensionProcessor создает новый экземпляр TimeDimensionProcessor
func NewTimeDimensionProcessor(logger *utils.ETLLogger) *TimeDimensionProcessor {
	return &TimeDimensionProcessor{logger: logger}
}

// ProcessTimeDimension возвращает по строке на уникальную дату продажи, по возрастанию даты
func (p *TimeDimensionProcessor) ProcessTimeDimension(candidates []models.FactCandidate) []models.TimeDimension {
	seen := make(map[time.Time]struct{})
	for _, c := range candidates {
		seen[c.SaleDate] = struct{}{}
	}

	dates := make([]models.TimeDimension, 0, len(seen))
	for d := range seen {
		dates = append(dates, NewTimeDimension(d))
	}
	slices.SortFunc(dates, func(a, b models.TimeDimension) int {
		return a.FullDate.Compare(b.FullDate)
	})

	p.logger.Debug("Измерение времени: %d уникальных дат", len(dates))
	return dates
}

// NewTimeDimension раскладывает дату на календарные атрибуты
func NewTimeDimension(date time.Time) models.TimeDimension {
	month := int(date.Month())

	return models.TimeDimension{
		FullDate:   date,
		Year:       date.Year(),
		Month:      month,
		DayOfMonth: date.Day(),
		// Квартал по месяцу
		Quarter: (month-1)/3 + 1,
	}
}
