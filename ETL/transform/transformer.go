package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/retail_etl/ETL/config"
	"github.com/LilVoxy/retail_etl/ETL/metrics"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// Transformer координирует очистку исходных строк и построение
// измерений схемы «звезда».
type Transformer struct {
	config           config.TransformConfig
	logger           *utils.ETLLogger
	timeDimProcessor *TimeDimensionProcessor
	dimProcessor     *DimensionProcessor
}

// NewTransformer создает новый экземпляр Transformer
func NewTransformer(cfg config.TransformConfig, logger *utils.ETLLogger) *Transformer {
	return &Transformer{
		config:           cfg,
		logger:           logger,
		timeDimProcessor: NewTimeDimensionProcessor(logger),
		dimProcessor:     NewDimensionProcessor(logger),
	}
}

// partitionResult - результат построчных этапов для одной партиции
type partitionResult struct {
	candidates []models.FactCandidate
	report     models.CleansingReport
}

// Transform выполняет всю фазу Transform над извлеченным набором
func (t *Transformer) Transform(ctx context.Context, extractedData *models.ExtractedData) (*models.TransformedData, error) {
	startTime := time.Now()
	t.logger.Info("Начало фазы преобразования данных")

	records := extractedData.Records
	transformedData := &models.TransformedData{}
	report := &transformedData.Report

	// 1. Медианный возраст, один раз по всему набору
	medianAge, ok := MedianAge(records)
	if !ok {
		medianAge = t.ageFallback()
		report.AgeFallbackUsed = true
		t.logger.Warn("В наборе нет ни одного возраста клиента, используется значение по умолчанию %d", medianAge)
	}
	report.MedianAge = medianAge
	t.logger.Debug("Медианный возраст для заполнения пропусков: %d", medianAge)

	// 2. Построчные этапы (исправление, стандартизация, проверка даты, суммы) по партициям
	parts := splitPartitions(records, t.config.Partitions)
	results, err := mapPartitions(ctx, parts, func(ctx context.Context, part []models.SourceRecord) (partitionResult, error) {
		return t.cleansePartition(ctx, part, medianAge)
	})
	if err != nil {
		t.logger.Error("Ошибка при очистке строк: %v", err)
		return nil, fmt.Errorf("cleanse rows: %w", err)
	}

	candidates := make([]models.FactCandidate, 0, len(records))
	for _, r := range results {
		candidates = append(candidates, r.candidates...)
		report.Add(r.report)
	}
	report.PartitionsProcessed = len(parts)
	transformedData.Candidates = candidates

	if report.DroppedInvalidDate > 0 {
		t.logger.Warn("Отброшено %d строк с датой продажи, не соответствующей %q", report.DroppedInvalidDate, t.config.DateLayout)
	}

	// 3. Измерения из очищенных строк
	var conflicts int
	transformedData.Customers, conflicts = t.dimProcessor.ProcessCustomers(candidates)
	report.ConflictingDimKeys += conflicts
	transformedData.Products, conflicts = t.dimProcessor.ProcessProducts(candidates)
	report.ConflictingDimKeys += conflicts
	transformedData.Locations, conflicts = t.dimProcessor.ProcessLocations(candidates)
	report.ConflictingDimKeys += conflicts
	transformedData.Dates = t.timeDimProcessor.ProcessTimeDimension(candidates)

	t.recordMetrics(report)

	t.logger.Info("Измерения построены: %d клиентов, %d товаров, %d местоположений, %d дат",
		len(transformedData.Customers), len(transformedData.Products),
		len(transformedData.Locations), len(transformedData.Dates))
	t.logger.LogTransformComplete(report.RowsIn, report.RowsOut, report.DroppedInvalidDate, time.Since(startTime))

	return transformedData, nil
}

// cleansePartition применяет построчные этапы к одной партиции
func (t *Transformer) cleansePartition(ctx context.Context, part []models.SourceRecord, medianAge int64) (partitionResult, error) {
	res := partitionResult{candidates: make([]models.FactCandidate, 0, len(part))}

	for i, r := range part {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		res.report.RowsIn++
		c, ok := CleanseRecord(r, medianAge, t.config.DateLayout, &res.report)
		if !ok {
			continue
		}
		res.candidates = append(res.candidates, c)
		res.report.RowsOut++
	}
	return res, nil
}

// CleanseRecord исправляет NULL, стандартизирует коды, проверяет дату продажи
// и считает сумму позиции. ok равно false, если строку нужно отбросить.
func CleanseRecord(r models.SourceRecord, medianAge int64, dateLayout string, report *models.CleansingReport) (models.FactCandidate, bool) {
	// Исправление NULL
	age, filled := fillNull(r.Age, medianAge)
	if filled {
		report.FilledAge++
	}
	gender, filled := fillNull(r.Gender, GenderNotInformed)
	if filled {
		report.FilledGender++
	}
	productName, filled := fillNull(r.ProductName, ProductNotInformed)
	if filled {
		report.FilledProductName++
	}
	unitCost, filled := fillDecimal(r.UnitCost, decimal.Zero)
	if filled {
		report.FilledUnitCost++
	}

	// Проверка даты
	saleDate, ok := ResolveSaleDate(r.SaleDate, dateLayout)
	if !ok {
		report.DroppedInvalidDate++
		return models.FactCandidate{}, false
	}

	return models.FactCandidate{
		SaleID:           r.SaleID,
		SaleDate:         saleDate,
		ProductID:        r.ProductID,
		Quantity:         r.Quantity,
		UnitPrice:        r.UnitPrice,
		TotalValue:       TotalValue(r.Quantity, r.UnitPrice),
		ProductName:      productName,
		ProductCategory:  r.ProductCategory,
		CustomerID:       r.CustomerID,
		CustomerName:     r.CustomerName,
		Age:              age,
		Gender:           StandardizeGender(gender),
		CustomerCategory: r.CustomerCategory,
		LocationID:       r.LocationID,
		City:             r.City,
		State:            StandardizeState(r.State),
		Region:           r.Region,
		UnitCost:         unitCost,
	}, true
}

func (t *Transformer) ageFallback() int64 {
	if t.config.AgeFallback != 0 {
		return t.config.AgeFallback
	}
	return DefaultAgeFallback
}

func (t *Transformer) recordMetrics(report *models.CleansingReport) {
	metrics.RowsDroppedInvalidDate.Add(float64(report.DroppedInvalidDate))
	metrics.NullsRepaired.WithLabelValues("age").Add(float64(report.FilledAge))
	metrics.NullsRepaired.WithLabelValues("gender").Add(float64(report.FilledGender))
	metrics.NullsRepaired.WithLabelValues("product_name").Add(float64(report.FilledProductName))
	metrics.NullsRepaired.WithLabelValues("unit_cost").Add(float64(report.FilledUnitCost))
}
