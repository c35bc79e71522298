// Package checkpoint persists per-stage pipeline snapshots so an interrupted
// run can be inspected or resumed. Records are keyed by run ID and stage
// name and encoded with msgpack.
//
// The package includes a BadgerDB-backed implementation for durable runs and
// an in-memory implementation for tests and single-shot runs.
package checkpoint

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when no record exists for a run and stage.
var ErrNotFound = errors.New("checkpoint: not found")

// Record is one saved stage snapshot. Payload holds the stage's output as
// JSON, uninterpreted by the store.
type Record struct {
	RunID   string    `msgpack:"run_id"`
	Stage   string    `msgpack:"stage"`
	Topic   string    `msgpack:"topic"`
	Payload []byte    `msgpack:"payload"`
	SavedAt time.Time `msgpack:"saved_at"`
}

// Store persists stage records.
type Store interface {
	// Save stores a record, overwriting any previous snapshot of the same
	// run and stage.
	Save(ctx context.Context, rec *Record) error

	// Load retrieves the record for a run and stage. Returns ErrNotFound
	// if no snapshot exists.
	Load(ctx context.Context, runID, stage string) (*Record, error)

	// List iterates over all records of a run in lexicographic stage order.
	List(ctx context.Context, runID string) iter.Seq2[*Record, error]

	// Runs iterates over the distinct run IDs present in the store, in
	// lexicographic order.
	Runs(ctx context.Context) iter.Seq2[string, error]

	// Delete removes all records of a run. No error if the run is unknown.
	Delete(ctx context.Context, runID string) error

	// Close releases any resources held by the store.
	Close() error
}

// keySep separates run ID and stage in encoded keys. It cannot appear in
// either segment, which run IDs (UUIDs) and stage names (fixed identifiers)
// guarantee.
const keySep = 0x00

func encodeKey(runID, stage string) []byte {
	buf := make([]byte, 0, len(runID)+1+len(stage))
	buf = append(buf, runID...)
	buf = append(buf, keySep)
	buf = append(buf, stage...)
	return buf
}

func encodeRecord(rec *Record) ([]byte, error) {
	return msgpack.Marshal(rec)
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
