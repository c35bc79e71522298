package checkpoint

import (
	"bytes"
	"context"
	"iter"
	"sort"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use and is the
// default for runs that do not ask for a durable checkpoint directory.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates a new in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Save(_ context.Context, rec *Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	k := string(encodeKey(rec.RunID, rec.Stage))
	m.mu.Lock()
	m.data[k] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(_ context.Context, runID, stage string) (*Record, error) {
	k := string(encodeKey(runID, stage))
	m.mu.RLock()
	data, ok := m.data[k]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeRecord(data)
}

func (m *Memory) List(_ context.Context, runID string) iter.Seq2[*Record, error] {
	prefix := encodeKey(runID, "")

	// Snapshot matching entries under read lock, sorted for deterministic
	// iteration order.
	m.mu.RLock()
	var matches []string
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			matches = append(matches, k)
		}
	}
	vals := make(map[string][]byte, len(matches))
	for _, k := range matches {
		vals[k] = m.data[k]
	}
	m.mu.RUnlock()
	sort.Strings(matches)

	return func(yield func(*Record, error) bool) {
		for _, k := range matches {
			rec, err := decodeRecord(vals[k])
			if !yield(rec, err) {
				return
			}
		}
	}
}

func (m *Memory) Runs(_ context.Context) iter.Seq2[string, error] {
	m.mu.RLock()
	seen := make(map[string]bool)
	var runs []string
	for k := range m.data {
		runID := k
		if i := bytes.IndexByte([]byte(k), keySep); i >= 0 {
			runID = k[:i]
		}
		if !seen[runID] {
			seen[runID] = true
			runs = append(runs, runID)
		}
	}
	m.mu.RUnlock()
	sort.Strings(runs)

	return func(yield func(string, error) bool) {
		for _, id := range runs {
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (m *Memory) Delete(_ context.Context, runID string) error {
	prefix := encodeKey(runID, "")
	m.mu.Lock()
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			delete(m.data, k)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
