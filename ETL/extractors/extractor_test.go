package extractors

import (
	"context"
	"errors"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/retail_etl/ETL/metrics"
	"github.com/LilVoxy/retail_etl/ETL/models"
	"github.com/LilVoxy/retail_etl/ETL/testutil"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

func TestExtractor_Extract(t *testing.T) {
	db := testutil.OpenSQLite(t, "crm.db")
	testutil.SeedSource(t, db)

	data, err := NewExtractor(db, utils.NewNopLogger()).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Records, 3)
	require.False(t, data.ExtractedAt.IsZero())

	bySale := make(map[int64]models.SourceRecord)
	for _, r := range data.Records {
		bySale[r.SaleID] = r
	}

	first := bySale[1]
	require.Equal(t, "2023-01-15", first.SaleDate.Value)
	require.Equal(t, int64(3), first.Quantity)
	require.Equal(t, "10.005", first.UnitPrice.String())
	require.Equal(t, "Hammer", first.ProductName.V)
	require.Equal(t, "Hardware", first.ProductCategory)
	require.Equal(t, int64(34), first.Age.V)
	require.Equal(t, "F", first.Gender.V)
	require.Equal(t, "pe", first.State)
	require.True(t, first.UnitCost.Valid)
	require.Equal(t, "4.5", first.UnitCost.Decimal.String())

	// Product without supplier record survives the left join with a NULL cost
	second := bySale[2]
	require.Equal(t, int64(20), second.ProductID)
	require.False(t, second.UnitCost.Valid)
	require.False(t, second.ProductName.Valid)
	require.False(t, second.Age.Valid)

	// The extractor does not validate dates
	require.Equal(t, "2023-13-45", bySale[3].SaleDate.Value)
}

func TestExtractor_CountsExtractedRows(t *testing.T) {
	db := testutil.OpenSQLite(t, "crm.db")
	testutil.SeedSource(t, db)

	before := promtestutil.ToFloat64(metrics.SourceRowsExtracted)
	_, err := NewExtractor(db, utils.NewNopLogger()).Extract(context.Background())
	require.NoError(t, err)
	require.Equal(t, before+3, promtestutil.ToFloat64(metrics.SourceRowsExtracted))
}

func TestExtractor_UnreachableSource(t *testing.T) {
	db := testutil.OpenSQLite(t, "crm.db")
	testutil.SeedSource(t, db)
	require.NoError(t, db.Close())

	_, err := NewExtractor(db, utils.NewNopLogger()).Extract(context.Background())
	require.ErrorIs(t, err, models.ErrConnectivity)
}

func TestExtractor_EmptySource(t *testing.T) {
	db := testutil.OpenSQLite(t, "crm.db")
	testutil.Exec(t, db, testutil.SourceSchema)

	data, err := NewExtractor(db, utils.NewNopLogger()).Extract(context.Background())
	require.NoError(t, err)
	require.Empty(t, data.Records)
}

func TestExtractor_MissingColumn(t *testing.T) {
	db := testutil.OpenSQLite(t, "crm.db")
	testutil.SeedSource(t, db)
	testutil.Exec(t, db, `
		DROP TABLE product_suppliers;
		CREATE TABLE product_suppliers (product_id INTEGER NOT NULL, cost NUMERIC NULL);
	`)

	_, err := NewExtractor(db, utils.NewNopLogger()).Extract(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrSchemaMismatch), err.Error())
}

func TestExtractor_IncompatibleColumnType(t *testing.T) {
	db := testutil.OpenSQLite(t, "crm.db")
	testutil.SeedSource(t, db)
	testutil.Exec(t, db, `UPDATE customers SET age = 'unknown' WHERE customer_id = 1`)

	_, err := NewExtractor(db, utils.NewNopLogger()).Extract(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrSchemaMismatch), err.Error())
}

func TestCheckColumns(t *testing.T) {
	prefixed := make([]string, len(expectedColumns))
	for i, c := range expectedColumns {
		prefixed[i] = "S_" + c
	}

	require.NoError(t, checkColumns(expectedColumns))
	require.ErrorIs(t, checkColumns(expectedColumns[1:]), models.ErrSchemaMismatch)
	require.ErrorIs(t, checkColumns(prefixed), models.ErrSchemaMismatch)
}
