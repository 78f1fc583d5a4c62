package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/retail_etl/ETL/dialect"
	"github.com/LilVoxy/retail_etl/ETL/testutil"
)

func newTestRepository(t *testing.T) *SQLETLLogRepository {
	t.Helper()
	repo := NewSQLETLLogRepository(testutil.OpenSQLite(t, "dw.db"), dialect.SQLite, "etl_run_log")
	require.NoError(t, repo.CreateETLLogTable(context.Background()))
	return repo
}

func TestSQLETLLogRepository_SuccessfulRun(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	// Creating the table twice is harmless
	require.NoError(t, repo.CreateETLLogTable(ctx))

	last, err := repo.GetLastSuccessfulRun(ctx)
	require.NoError(t, err)
	require.Nil(t, last)

	start := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateLogEntry(ctx, "run-1", start))
	require.NoError(t, repo.UpdateLogEntrySuccess(ctx, "run-1", start.Add(90*time.Second), RunCounts{
		SourceRows:         3,
		CandidateRows:      2,
		DroppedInvalidDate: 1,
		FactsLoaded:        2,
	}))

	last, err = repo.GetLastSuccessfulRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "run-1", last.ID)
	require.Equal(t, RunStatusSuccess, last.Status)
	require.Equal(t, 3, last.SourceRows)
	require.Equal(t, 2, last.CandidateRows)
	require.Equal(t, 1, last.DroppedInvalidDate)
	require.Equal(t, 2, last.FactsLoaded)
	require.InDelta(t, 90.0, last.ExecutionTimeSeconds, 0.001)
	require.True(t, last.StartTime.Equal(start))
}

func TestSQLETLLogRepository_FailedRunAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateLogEntry(ctx, "run-1", base))
	require.NoError(t, repo.UpdateLogEntrySuccess(ctx, "run-1", base.Add(time.Minute), RunCounts{FactsLoaded: 5}))

	require.NoError(t, repo.CreateLogEntry(ctx, "run-2", base.Add(time.Hour)))
	require.NoError(t, repo.UpdateLogEntryFailure(ctx, "run-2", base.Add(time.Hour+time.Second), string(StageKeyReadBack), "schema mismatch"))

	require.NoError(t, repo.CreateLogEntry(ctx, "run-3", base.Add(2*time.Hour)))

	runs, err := repo.GetRecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, []string{"run-3", "run-2", "run-1"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	require.Equal(t, RunStatusInProgress, runs[0].Status)
	require.True(t, runs[0].EndTime.IsZero())

	require.Equal(t, RunStatusFailed, runs[1].Status)
	require.Equal(t, "S2_key_read_back", runs[1].FailedStage)
	require.Equal(t, "schema mismatch", runs[1].ErrorMessage)

	limited, err := repo.GetRecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	last, err := repo.GetLastSuccessfulRun(ctx)
	require.NoError(t, err)
	require.Equal(t, "run-1", last.ID)
}

func TestSQLETLLogRepository_UnknownRun(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.UpdateLogEntryFailure(context.Background(), "missing", time.Now(), "extract", "boom")
	require.ErrorContains(t, err, "not found")
}
