// Package audit records one document per resolution run to MongoDB: a
// host-side concern entirely outside the core enumerator, which never
// persists anything about its own state. A host wanting a history of
// what it resolved, when, and with what outcome layers that on top here.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Run is one resolution run's audit record.
type Run struct {
	RunID         string    `bson:"run_id"`
	StartedAt     time.Time `bson:"started_at"`
	FinishedAt    time.Time `bson:"finished_at"`
	PackageCount  int       `bson:"package_count"`
	StacksEmitted int       `bson:"stacks_emitted"`
	StatesPruned  int       `bson:"states_pruned"`
	Err           string    `bson:"error,omitempty"`
}

// Store appends Run records to a MongoDB collection. A nil Store is
// valid and a no-op Record call — audit logging is optional, never
// required for a resolution run to proceed.
type Store struct {
	coll *mongo.Collection
}

// NewStore wraps an existing collection handle. Connection lifecycle
// (client construction, Ping, Disconnect) is the host's responsibility;
// Store only ever issues InsertOne.
func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Record inserts one Run document. A nil receiver makes this a no-op so
// callers can wire an optional *Store through without a nil check at
// every call site.
func (s *Store) Record(ctx context.Context, run Run) error {
	if s == nil {
		return nil
	}
	if _, err := s.coll.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("audit: insert run %q: %w", run.RunID, err)
	}
	return nil
}

// Recent returns the most recent limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int64) ([]Run, error) {
	if s == nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(limit)
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("audit: find recent runs: %w", err)
	}
	defer cur.Close(ctx)

	var runs []Run
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("audit: decode recent runs: %w", err)
	}
	return runs, nil
}
