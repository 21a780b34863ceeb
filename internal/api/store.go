package api

import (
	"sync"
	"time"

	"github.com/samcharles93/loom/internal/manifest"
	"github.com/samcharles93/loom/internal/rt"
)

// ModelRecord pairs a live runtime instance with the manifest it was loaded
// from.
type ModelRecord struct {
	ID       string
	Model    *rt.Model
	Manifest *manifest.Manifest
	LoadedAt time.Time
}

// ModelStore tracks the model instances a server exposes, keyed by instance
// ID.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]*ModelRecord
}

func NewModelStore() *ModelStore {
	return &ModelStore{models: make(map[string]*ModelRecord)}
}

// Add registers a loaded instance and returns its record.
func (s *ModelStore) Add(m *rt.Model, man *manifest.Manifest) *ModelRecord {
	rec := &ModelRecord{
		ID:       m.ID().String(),
		Model:    m,
		Manifest: man,
		LoadedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.models[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

func (s *ModelStore) Get(id string) (*ModelRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.models[id]
	return rec, ok
}

func (s *ModelStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[id]; !ok {
		return false
	}
	delete(s.models, id)
	return true
}

// List returns all records ordered by load time.
func (s *ModelStore) List() []*ModelRecord {
	s.mu.RLock()
	out := make([]*ModelRecord, 0, len(s.models))
	for _, rec := range s.models {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].LoadedAt.Before(out[j-1].LoadedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
