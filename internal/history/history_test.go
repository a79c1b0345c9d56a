package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), ".curator", "history.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func sampleRun(started time.Time) *Run {
	return &Run{
		ID:           uuid.NewString(),
		Target:       "/notes",
		StartedAt:    started,
		CompletedAt:  started.Add(1500 * time.Millisecond),
		Complexity:   types.ComplexityModerate,
		Organization: types.OrganizationStructured,
		Planned:      3,
		Status:       StatusCompleted,
		OutputPath:   "/notes/CORPUS_GUIDE.md",
		Language:     "en",
		Stages: []types.StageTiming{
			{Stage: types.StageDiscovery, Duration: 20 * time.Millisecond, Outcome: types.OutcomeOK},
			{Stage: types.StageDeepContentDiscovery, Duration: 900 * time.Millisecond, Outcome: types.OutcomeDegraded},
			{Stage: types.StageInstructionSynthesis, Duration: 5 * time.Millisecond, Outcome: types.OutcomeOK},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	want := sampleRun(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))

	require.NoError(t, l.Record(ctx, want))
	got, err := l.Get(ctx, want.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, got.StagesRun())
	assert.Equal(t, 1, got.Degraded())
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
}

func TestGetUnknownRun(t *testing.T) {
	_, err := openLedger(t).Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListNewestFirst(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		run := sampleRun(base.Add(time.Duration(i) * 500 * time.Millisecond))
		ids = append(ids, run.ID)
		require.NoError(t, l.Record(ctx, run))
	}

	runs, err := l.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[4], ids[3], ids[2]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Len(t, runs[0].Stages, 3)

	all, err := l.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRecordDuplicateID(t *testing.T) {
	l := openLedger(t)
	run := sampleRun(time.Now())
	require.NoError(t, l.Record(context.Background(), run))
	assert.Error(t, l.Record(context.Background(), run))
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	l, err := Open(ctx, path, nil)
	require.NoError(t, err)
	run := sampleRun(time.Now())
	require.NoError(t, l.Record(ctx, run))
	require.NoError(t, l.Close())

	l, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer l.Close()
	_, err = l.Get(ctx, run.ID)
	assert.NoError(t, err)

	version, err := schemaVersion(ctx, l.db)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestNewRun(t *testing.T) {
	strategy := &types.WorkflowStrategy{
		Profile: types.Profile{Complexity: types.ComplexitySimple, OrganizationLevel: types.OrganizationBasic},
		Stages:  types.MandatoryStages,
	}
	started := time.Now()
	result := &pipeline.RunResult{
		RunID:       "run-1",
		State:       types.NewAnalysisState("run-1"),
		Timings:     []types.StageTiming{{Stage: types.StageDiscovery, Outcome: types.OutcomeFailed}},
		StartedAt:   started,
		CompletedAt: started.Add(time.Second),
	}
	stageErr := &types.StageExecutionError{Stage: types.StageDiscovery, Index: 1, Total: 6, Err: errors.New("boom")}

	run := NewRun("/notes", strategy, result, stageErr)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, types.StageDiscovery, run.FailedStage)
	assert.Equal(t, len(types.MandatoryStages), run.Planned)
	assert.Zero(t, run.StagesRun())
	assert.Contains(t, run.Error, "boom")

	ok := NewRun("/notes", strategy, result, nil)
	assert.Equal(t, StatusCompleted, ok.Status)
	assert.Empty(t, ok.FailedStage)
}
