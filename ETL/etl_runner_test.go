package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/retail_etl/ETL/config"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/testutil"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

type milestoneLog struct {
	mu     sync.Mutex
	phases []string
}

func (l *milestoneLog) Notify(m utils.Milestone) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phases = append(l.phases, m.Phase)
}

func newTestRunner(t *testing.T, notifier utils.Notifier) (*ETLRunner, string, string) {
	t.Helper()

	sourcePath := testutil.SQLitePath(t, "crm.db")
	testutil.SeedSource(t, testutil.Open(t, sourcePath))
	warehousePath := testutil.SQLitePath(t, "dw.db")

	cfg := config.DefaultETLConfig
	cfg.SourceConfig = config.DatabaseConfig{Driver: "sqlite", DBName: sourcePath}
	cfg.WarehouseConfig = config.DatabaseConfig{Driver: "sqlite", DBName: warehousePath}
	cfg.Transform.Partitions = 2
	cfg.RejectsPath = filepath.Join(t.TempDir(), "rejects")
	require.NoError(t, cfg.Validate())

	runner, err := NewETLRunner(context.Background(), cfg, utils.NewNopLogger(), notifier)
	require.NoError(t, err)
	t.Cleanup(runner.Close)

	return runner, sourcePath, warehousePath
}

func TestExecuteETL_EndToEnd(t *testing.T) {
	events := &milestoneLog{}
	runner, _, warehousePath := newTestRunner(t, events)

	require.NoError(t, runner.ExecuteETL(context.Background()))

	dw := testutil.Open(t, warehousePath)
	for table, want := range map[string]int{
		"dim_customer": 2,
		"dim_product":  2,
		"dim_location": 1,
		"dim_time":     2,
		"fact_sales":   2,
	} {
		var n int
		require.NoError(t, dw.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		require.Equal(t, want, n, table)
	}

	// Product 20 has no supplier cost and its name was missing
	var unitCost, totalValue decimal.Decimal
	require.NoError(t, dw.QueryRow(`
		SELECT f.unit_cost, f.total_value
		FROM fact_sales f JOIN dim_product p ON f.sk_product = p.sk_product
		WHERE p.product_id = 20`).Scan(&unitCost, &totalValue))
	require.True(t, unitCost.IsZero())
	require.Equal(t, "0.02", totalValue.StringFixed(2))

	var productName string
	require.NoError(t, dw.QueryRow(`SELECT product_name FROM dim_product WHERE product_id = 20`).Scan(&productName))
	require.Equal(t, "Product not informed", productName)

	// 3 x 10.005 rounds half to even
	require.NoError(t, dw.QueryRow(`SELECT total_value FROM fact_sales WHERE sale_id = 1`).Scan(&totalValue))
	require.Equal(t, "30.02", totalValue.StringFixed(2))

	// Standardized attributes; Bruno's missing age takes the only known age
	var gender, state string
	var age int64
	require.NoError(t, dw.QueryRow(`SELECT gender, age FROM dim_customer WHERE customer_id = 2`).Scan(&gender, &age))
	require.Equal(t, "Masculine", gender)
	require.Equal(t, int64(34), age)
	require.NoError(t, dw.QueryRow(`SELECT state FROM dim_location`).Scan(&state))
	require.Equal(t, "PE", state)

	// Run history
	last, err := runner.etlLogRepo.GetLastSuccessfulRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, 3, last.SourceRows)
	require.Equal(t, 2, last.CandidateRows)
	require.Equal(t, 1, last.DroppedInvalidDate)
	require.Equal(t, 0, last.UnresolvedRows)
	require.Equal(t, 2, last.FactsLoaded)

	events.mu.Lock()
	defer events.mu.Unlock()
	require.Equal(t, utils.PhaseRunStarted, events.phases[0])
	require.Equal(t, utils.PhaseLoaded, events.phases[len(events.phases)-1])
	require.Contains(t, events.phases, utils.PhaseExtracted)
	require.Contains(t, events.phases, utils.PhaseTransformed)
	require.Contains(t, events.phases, utils.PhaseLoadStage)
}

func TestExecuteETL_SchemaMismatchIsRecorded(t *testing.T) {
	events := &milestoneLog{}
	runner, sourcePath, _ := newTestRunner(t, events)

	testutil.Exec(t, testutil.Open(t, sourcePath), `DROP TABLE locations`)

	err := runner.ExecuteETL(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrSchemaMismatch), err.Error())

	runs, err := runner.etlLogRepo.GetRecentRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, models.RunStatusFailed, runs[0].Status)
	require.Equal(t, stageExtract, runs[0].FailedStage)

	events.mu.Lock()
	defer events.mu.Unlock()
	require.Equal(t, utils.PhaseRunFailed, events.phases[len(events.phases)-1])
}

func TestExecuteETL_RerunGivesSameWarehouse(t *testing.T) {
	runner, _, warehousePath := newTestRunner(t, nil)
	dw := testutil.Open(t, warehousePath)

	snapshot := func() [][]int64 {
		rows, err := dw.Query(`SELECT sk_customer, sk_product, sk_location, sk_time, sale_id FROM fact_sales ORDER BY sale_id`)
		require.NoError(t, err)
		defer rows.Close()

		var out [][]int64
		for rows.Next() {
			r := make([]int64, 5)
			require.NoError(t, rows.Scan(&r[0], &r[1], &r[2], &r[3], &r[4]))
			out = append(out, r)
		}
		require.NoError(t, rows.Err())
		return out
	}

	require.NoError(t, runner.ExecuteETL(context.Background()))
	first := snapshot()
	require.NoError(t, runner.ExecuteETL(context.Background()))

	require.Equal(t, first, snapshot())

	runs, err := runner.etlLogRepo.GetRecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}
