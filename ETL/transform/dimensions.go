package transform

import (
	"cmp"
	"maps"
	"slices"

	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// DimensionProcessor строит измерения клиентов, товаров и местоположений
// из очищенных кандидатов.
type DimensionProcessor struct {
	logger *utils.ETLLogger
}

// NewDimensionProcessor создает новый экземпляр DimensionProcessor
func NewDimensionProcessor(logger *utils.ETLLogger) *DimensionProcessor {
	return &DimensionProcessor{logger: logger}
}

// distinctByKey оставляет одну строку на натуральный ключ. Если у двух разных строк
// один ключ, остается меньшая по compare, и результат не зависит от порядка
// входа. conflicts - число ключей с несколькими разными строками.
func distinctByKey[K cmp.Ordered, R comparable](rows []R, key func(R) K, compare func(a, b R) int) (out []R, conflicts int) {
	byKey := make(map[K]R, len(rows))
	conflicted := make(map[K]bool)

	for _, r := range rows {
		k := key(r)
		current, ok := byKey[k]
		if !ok {
			byKey[k] = r
			continue
		}
		if current == r {
			continue
		}
		conflicted[k] = true
		if compare(r, current) < 0 {
			byKey[k] = r
		}
	}

	keys := slices.Sorted(maps.Keys(byKey))
	out = make([]R, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out, len(conflicted)
}

// ProcessCustomers возвращает уникальных клиентов
func (p *DimensionProcessor) ProcessCustomers(candidates []models.FactCandidate) ([]models.CustomerDimension, int) {
	rows := make([]models.CustomerDimension, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, models.CustomerDimension{
			CustomerID:       c.CustomerID,
			Name:             c.CustomerName,
			Age:              c.Age,
			Gender:           c.Gender,
			CustomerCategory: c.CustomerCategory,
		})
	}

	customers, conflicts := distinctByKey(rows,
		func(r models.CustomerDimension) int64 { return r.CustomerID },
		func(a, b models.CustomerDimension) int {
			return cmp.Or(
				cmp.Compare(a.Name, b.Name),
				cmp.Compare(a.Age, b.Age),
				cmp.Compare(a.Gender, b.Gender),
				cmp.Compare(a.CustomerCategory, b.CustomerCategory),
			)
		})
	if conflicts > 0 {
		p.logger.Warn("Измерение клиентов: у %d клиентов противоречивые атрибуты, оставлен наименьший вариант", conflicts)
	}

	p.logger.Debug("Измерение клиентов: %d строк", len(customers))
	return customers, conflicts
}

// ProcessProducts возвращает уникальные товары
func (p *DimensionProcessor) ProcessProducts(candidates []models.FactCandidate) ([]models.ProductDimension, int) {
	rows := make([]models.ProductDimension, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, models.ProductDimension{
			ProductID:       c.ProductID,
			Name:            c.ProductName,
			ProductCategory: c.ProductCategory,
		})
	}

	products, conflicts := distinctByKey(rows,
		func(r models.ProductDimension) int64 { return r.ProductID },
		func(a, b models.ProductDimension) int {
			return cmp.Or(
				cmp.Compare(a.Name, b.Name),
				cmp.Compare(a.ProductCategory, b.ProductCategory),
			)
		})
	if conflicts > 0 {
		p.logger.Warn("Измерение товаров: у %d товаров противоречивые атрибуты, оставлен наименьший вариант", conflicts)
	}

	p.logger.Debug("Измерение товаров: %d строк", len(products))
	return products, conflicts
}

// ProcessLocations возвращает уникальные местоположения
func (p *DimensionProcessor) ProcessLocations(candidates []models.FactCandidate) ([]models.LocationDimension, int) {
	rows := make([]models.LocationDimension, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, models.LocationDimension{
			LocationID: c.LocationID,
			City:       c.City,
			State:      c.State,
			Region:     c.Region,
		})
	}

	locations, conflicts := distinctByKey(rows,
		func(r models.LocationDimension) int64 { return r.LocationID },
		func(a, b models.LocationDimension) int {
			return cmp.Or(
				cmp.Compare(a.City, b.City),
				cmp.Compare(a.State, b.State),
				cmp.Compare(a.Region, b.Region),
			)
		})
	if conflicts > 0 {
		p.logger.Warn("Измерение местоположений: у %d местоположений противоречивые атрибуты, оставлен наименьший вариант", conflicts)
	}

	p.logger.Debug("Измерение местоположений: %d строк", len(locations))
	return locations, conflicts
}
