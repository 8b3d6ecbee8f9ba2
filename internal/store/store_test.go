package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func testSummary(rate float64) model.Summary {
	return model.Summary{
		CompletedRate:  rate,
		AvgTouchpoints: 2.5,
		AvgTotalTime:   7.25,
		ByPopulation: []model.PopulationSummary{
			{Population: "Population 1", CompletionRate: rate, AvgTouchpoints: 2, AvgTotalTime: 7, N: 3},
			{Population: "Population 2", CompletionRate: rate / 2, AvgTouchpoints: 3, AvgTotalTime: 7.5, N: 1},
		},
	}
}

func TestDetectDriver(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/sim?sslmode=disable": DriverPostgres,
		"postgresql://localhost/sim":                        DriverPostgres,
		"host=localhost dbname=sim sslmode=disable":         DriverPostgres,
		"/home/me/.local/share/apptsim/runs.db":             DriverSQLite,
		"runs.db":                                           DriverSQLite,
	}
	for dsn, want := range cases {
		assert.Equal(t, want, DetectDriver(dsn), dsn)
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestSaveAndGetRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	assert.Equal(t, DriverSQLite, st.Driver())

	cfg := model.Config{
		NPatients:     4,
		Seed:          7,
		MaxAttempts:   2,
		LambdaPerWeek: 40,
		Populations:   []model.PopulationWeight{{Name: "Population 1", Weight: 1}},
	}
	before := time.Now().UTC().Add(-time.Second)
	info, err := st.SaveRun(ctx, cfg, testSummary(0.75), "Patient #\n1\n")
	require.NoError(t, err)
	assert.Greater(t, info.ID, int64(0))
	assert.Len(t, info.Key, 36)
	assert.True(t, info.CreatedAt.After(before))

	run, err := st.GetRun(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, run.ID)
	assert.Equal(t, info.Key, run.Key)
	assert.True(t, info.CreatedAt.Equal(run.CreatedAt))
	assert.Equal(t, cfg, run.Config)
	assert.Equal(t, testSummary(0.75), run.Summary)
	assert.Equal(t, "Patient #\n1\n", run.CSVText)
}

func TestGetRunNotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := st.GetRun(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRunsNewestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		info, err := st.SaveRun(ctx, model.Config{NPatients: i + 1}, testSummary(float64(i)/4), "")
		require.NoError(t, err)
		ids = append(ids, info.ID)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	runs, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, 0.5, runs[0].Summary.CompletedRate)

	all, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPopulationHistory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for _, rate := range []float64{0.2, 0.4, 0.6} {
		_, err := st.SaveRun(ctx, model.Config{}, testSummary(rate), "")
		require.NoError(t, err)
	}
	points, err := st.PopulationHistory(ctx, "Population 2", 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 0.2, points[0].CompletionRate, 1e-12)
	assert.InDelta(t, 0.3, points[1].CompletionRate, 1e-12)
	assert.Less(t, points[0].RunID, points[1].RunID)
	assert.Equal(t, 1, points[1].N)

	none, err := st.PopulationHistory(ctx, "Nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveRunRejectsDuplicatePopulations(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	summary := testSummary(0.5)
	summary.ByPopulation = append(summary.ByPopulation, summary.ByPopulation[0])
	_, err := st.SaveRun(ctx, model.Config{}, summary, "")
	require.Error(t, err)

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs, "failed save must not leave a partial run")
}
