// Package metrics предоставляет счетчики Prometheus для запусков ETL.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Извлечение
	SourceRowsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retail_etl_source_rows_extracted_total",
		Help: "Total number of line items read from the operational store",
	})

	// Преобразование
	RowsDroppedInvalidDate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retail_etl_rows_dropped_invalid_date_total",
		Help: "Total number of line items dropped because the sale date did not parse",
	})

	NullsRepaired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_etl_nulls_repaired_total",
		Help: "Total number of null values replaced by a default, by column",
	}, []string{"column"})

	// Загрузка
	DimensionRowsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_etl_dimension_rows_published_total",
		Help: "Total number of dimension rows written to the warehouse",
	}, []string{"dimension"})

	UnresolvedFactRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_etl_unresolved_fact_rows_total",
		Help: "Total number of fact candidates dropped because a dimension had no matching natural key",
	}, []string{"dimension"})

	FactRowsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retail_etl_fact_rows_published_total",
		Help: "Total number of fact rows written to the warehouse",
	})

	// Запуски
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_etl_runs_total",
		Help: "Total number of ETL runs by final status",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retail_etl_run_duration_seconds",
		Help:    "Wall time of a full ETL run",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	LastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retail_etl_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})
)
