package modelstore

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/hydroseries/drought"
)

// ErrNotFound is returned when no model is stored under the given name.
var ErrNotFound = errors.New("model not found")

// Store persists fitted drought models across restarts. Models are keyed by
// their name, e.g. "SPEI_30D".
type Store interface {
	Save(ctx context.Context, model *drought.Model) error
	Load(ctx context.Context, name string) (*drought.Model, error)
}

// MemoryStore keeps models in process memory. It is the default when no
// Redis address is configured and the backing store for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	models map[string]*drought.Model
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{models: make(map[string]*drought.Model)}
}

func (s *MemoryStore) Save(_ context.Context, model *drought.Model) error {
	if model == nil {
		return errors.New("save model: nil model")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[model.Name()] = model
	return nil
}

func (s *MemoryStore) Load(_ context.Context, name string) (*drought.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}
