package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-reporter/internal/models"
)

func TestMemoryRecorderKeepsNewestFirst(t *testing.T) {
	ctx := context.Background()
	rec := NewMemoryRecorder(3)
	start := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		run := &models.CycleRun{StartedAt: start.Add(time.Duration(i) * 5 * time.Minute), Status: models.CycleStatusOK, AssetCount: i}
		require.NoError(t, rec.RecordCycle(ctx, run))
		assert.Equal(t, uint(i+1), run.ID)
	}

	runs, err := rec.RecentCycles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int{4, 3, 2}, []int{runs[0].AssetCount, runs[1].AssetCount, runs[2].AssetCount})

	runs, err = rec.RecentCycles(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, uint(5), runs[0].ID)
}

func TestMemoryRecorderEmpty(t *testing.T) {
	runs, err := NewMemoryRecorder(0).RecentCycles(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
