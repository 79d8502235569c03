package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/artifactresolve/collector/internal/config"
)

// setupTestPostgres starts a disposable Postgres container, runs the
// package's goose migrations against it, and returns a ready Recorder.
func setupTestPostgres(t *testing.T) Recorder {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("collector_history_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, connStr, nil))

	recorder, err := NewPostgresRecorder(ctx, config.HistoryConfig{
		PostgresURL:    connStr,
		ConnectTimeout: 10 * time.Second,
		MaxConnections: 5,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, recorder.Close(context.Background()))
	})

	return recorder
}

func TestPostgresRecorder_GetMissingEntryReturnsNotFound(t *testing.T) {
	recorder := setupTestPostgres(t)

	_, found, err := recorder.Get(context.Background(), "does-not-exist")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPostgresRecorder_RecordThenGetRoundTrips(t *testing.T) {
	recorder := setupTestPostgres(t)

	started := time.Now().Add(-time.Minute).Truncate(time.Microsecond)
	finished := time.Now().Truncate(time.Microsecond)
	entry := Entry{
		ResolutionID:   "res-1",
		RootCoordinate: "gid:root:jar:1",
		RequestContext: "ctx-a",
		NodeCount:      12,
		ExceptionCount: 1,
		CycleCount:     0,
		FirstErrorPath: "gid:root:jar:1 -> gid:broken:jar:1",
		StartedAt:      started,
		FinishedAt:     finished,
	}

	require.NoError(t, recorder.Record(context.Background(), entry))

	got, found, err := recorder.Get(context.Background(), "res-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, entry.ResolutionID, got.ResolutionID)
	require.Equal(t, entry.RootCoordinate, got.RootCoordinate)
	require.Equal(t, entry.NodeCount, got.NodeCount)
	require.Equal(t, entry.ExceptionCount, got.ExceptionCount)
	require.WithinDuration(t, entry.FinishedAt, got.FinishedAt, time.Second)
}

func TestPostgresRecorder_RecordUpsertsOnResolutionID(t *testing.T) {
	recorder := setupTestPostgres(t)

	entry := Entry{ResolutionID: "res-2", RootCoordinate: "gid:root:jar:1", NodeCount: 1}
	require.NoError(t, recorder.Record(context.Background(), entry))

	entry.NodeCount = 99
	entry.ExceptionCount = 3
	require.NoError(t, recorder.Record(context.Background(), entry))

	got, found, err := recorder.Get(context.Background(), "res-2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 99, got.NodeCount)
	require.Equal(t, 3, got.ExceptionCount)
}

func TestPostgresRecorder_OperationsAfterCloseReturnErrClosed(t *testing.T) {
	recorder := setupTestPostgres(t)
	require.NoError(t, recorder.Close(context.Background()))

	err := recorder.Record(context.Background(), Entry{ResolutionID: "res-3"})
	require.ErrorIs(t, err, ErrClosed)

	_, _, err = recorder.Get(context.Background(), "res-3")
	require.ErrorIs(t, err, ErrClosed)
}
