package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artifactresolve/collector/internal/config"
)

// PostgresRecorder persists resolution-history entries to Postgres using a
// pooled connection (pgxpool). It pings the database once on connect and
// has no separate health or stats methods.
type PostgresRecorder struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	isClosed atomic.Bool
}

// NewPostgresRecorder dials Postgres using cfg and returns a ready
// Recorder. Callers must call Close when done.
func NewPostgresRecorder(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger) (*PostgresRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PostgresURL == "" {
		return nil, errors.New("history: postgres URL is empty")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("history: parse postgres url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}

	logger.Info("connected to resolution history store", "backend", "postgres")
	return &PostgresRecorder{pool: pool, logger: logger}, nil
}

// Record inserts entry, upserting on resolution_id so a retried write is
// idempotent.
func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	if r.isClosed.Load() {
		return ErrClosed
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO resolution_history
			(resolution_id, root_coordinate, request_context, node_count, exception_count, cycle_count, first_error_path, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (resolution_id) DO UPDATE SET
			node_count = EXCLUDED.node_count,
			exception_count = EXCLUDED.exception_count,
			cycle_count = EXCLUDED.cycle_count,
			first_error_path = EXCLUDED.first_error_path,
			finished_at = EXCLUDED.finished_at
	`, entry.ResolutionID, entry.RootCoordinate, entry.RequestContext, entry.NodeCount, entry.ExceptionCount, entry.CycleCount, entry.FirstErrorPath, entry.StartedAt, entry.FinishedAt)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Get looks up entry by resolution ID.
func (r *PostgresRecorder) Get(ctx context.Context, resolutionID string) (Entry, bool, error) {
	if r.isClosed.Load() {
		return Entry{}, false, ErrClosed
	}
	row := r.pool.QueryRow(ctx, `
		SELECT resolution_id, root_coordinate, request_context, node_count, exception_count, cycle_count, first_error_path, started_at, finished_at
		FROM resolution_history WHERE resolution_id = $1
	`, resolutionID)

	var e Entry
	if err := row.Scan(&e.ResolutionID, &e.RootCoordinate, &e.RequestContext, &e.NodeCount, &e.ExceptionCount, &e.CycleCount, &e.FirstErrorPath, &e.StartedAt, &e.FinishedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("history: get: %w", err)
	}
	return e, true, nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close(ctx context.Context) error {
	if r.isClosed.CompareAndSwap(false, true) {
		r.pool.Close()
	}
	return nil
}
