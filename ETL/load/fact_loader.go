package load

import (
	"context"
	"fmt"
	"time"

	"github.com/LilVoxy/retail_etl/ETL/metrics"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// factSpec - таблица фактов продаж; одна строка на проданную позицию
func factSpec(name string) tableSpec {
	return tableSpec{
		name: name,
		columns: []column{
			{"sk_customer", bigint},
			{"sk_product", bigint},
			{"sk_location", bigint},
			{"sk_time", bigint},
			{"sale_id", bigint},
			{"quantity", bigint},
			{"unit_price", money},
			{"total_value", money},
			{"unit_cost", money},
		},
	}
}

// FactLoader публикует таблицу фактов продаж
type FactLoader struct {
	logger    *utils.ETLLogger
	publisher *TablePublisher
	table     string
}

// NewFactLoader создает новый экземпляр FactLoader
func NewFactLoader(publisher *TablePublisher, logger *utils.ETLLogger, table string) *FactLoader {
	return &FactLoader{
		logger:    logger,
		publisher: publisher,
		table:     table,
	}
}

// Publish перезаписывает таблицу фактов значениями facts
func (l *FactLoader) Publish(ctx context.Context, facts []models.SalesFact, runToken string) error {
	if len(facts) == 0 {
		l.logger.Warn("Нет строк фактов для публикации, %s будет пустой", l.table)
	}

	startTime := time.Now()
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = []any{
			f.CustomerSK,
			f.ProductSK,
			f.LocationSK,
			f.TimeSK,
			f.SaleID,
			f.Quantity,
			f.UnitPrice,
			f.TotalValue,
			f.UnitCost,
		}
	}

	if err := l.publisher.Publish(ctx, factSpec(l.table), rows, runToken); err != nil {
		l.logger.Error("Ошибка при публикации фактов: %v", err)
		return fmt.Errorf("publish facts: %w", err)
	}

	metrics.FactRowsPublished.Add(float64(len(facts)))
	l.logger.Info("Таблица фактов %s опубликована: %d строк за %v", l.table, len(facts), time.Since(startTime))
	return nil
}
