package state

import (
	"context"
	"sync"
	"time"

	ffopts "github.com/goliatone/go-ffoptions"
)

// MemoryStore keeps snapshots in process, keyed by Ref.Identifier. Snapshots
// are copied on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	options []ffopts.Option
	meta    Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (*ffopts.Store, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	snapshot, err := restore(record.options)
	if err != nil {
		return nil, Meta{}, false, err
	}
	return snapshot, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, snapshot *ffopts.Store, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	stored := stampMeta(meta, s.now())
	s.mu.Lock()
	s.records[key] = memoryRecord{options: snapshot.Options(), meta: stored}
	s.mu.Unlock()
	return cloneMeta(stored), nil
}

func (s *MemoryStore) SaveIf(_ context.Context, ref Ref, expected string, snapshot *ffopts.Store, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	stored := stampMeta(meta, s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if current := s.records[key].meta.ETag; current != expected {
		return Meta{}, etagConflict(key, expected, current)
	}
	s.records[key] = memoryRecord{options: snapshot.Options(), meta: stored}
	return cloneMeta(stored), nil
}

// Len returns the number of stored snapshots.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func restore(options []ffopts.Option) (*ffopts.Store, error) {
	snapshot := ffopts.New()
	for _, opt := range options {
		if err := snapshot.Set(opt.Category, opt.Key, opt.Value); err != nil {
			return nil, err
		}
	}
	return snapshot, nil
}
