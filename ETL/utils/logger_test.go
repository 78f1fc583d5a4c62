package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestETLLogger_WithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := newFromCore(core, false)

	logger.With("component", "progress_hub").Info("client %d connected", 7)
	logger.Debug("hidden without verbose")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "client 7 connected", entry.Message)
	require.Equal(t, "progress_hub", entry.ContextMap()["component"])
}

func TestETLLogger_VerboseEnablesDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := newFromCore(core, true)

	logger.With("component", "loader").Debug("batch %d", 1)

	require.Equal(t, 1, logs.FilterMessage("batch 1").Len())
}

func TestETLLogger_NotifyLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := newFromCore(core, false)

	MultiNotifier{logger, nil}.Notify(Milestone{RunID: "run-1", Phase: PhaseLoadStage, Stage: "S1_dimension_publish", Rows: 7})
	logger.Notify(Milestone{RunID: "run-1", Phase: PhaseRunFailed, Error: "boom"})

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Contains(t, entries[0].Message, "S1_dimension_publish")
	require.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	require.Contains(t, entries[1].Message, "boom")
}
