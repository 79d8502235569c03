package history

import (
	"context"
	"errors"
)

// ErrClosed is returned by a Recorder method called after Close.
var ErrClosed = errors.New("history: recorder is closed")

// Recorder persists resolution history entries. Implementations: a
// Postgres-backed store (PostgresRecorder) with a Redis read-through cache
// (RedisCache) in front of lookups.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	Get(ctx context.Context, resolutionID string) (Entry, bool, error)
	Close(ctx context.Context) error
}

// NewEntry builds an Entry summarizing a resolve.Result-shaped outcome.
// Callers pass the pieces directly rather than this package importing
// pkg/resolve, keeping the dependency direction one-way (resolve never
// needs to know history exists).
func NewEntry(resolutionID, rootCoordinate, requestContext string, nodeCount, exceptionCount, cycleCount int, firstErrorPath string) Entry {
	return Entry{
		ResolutionID:   resolutionID,
		RootCoordinate: rootCoordinate,
		RequestContext: requestContext,
		NodeCount:      nodeCount,
		ExceptionCount: exceptionCount,
		CycleCount:     cycleCount,
		FirstErrorPath: firstErrorPath,
	}
}
