package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopscene/studio/internal/models"
)

// ResultStore holds generated images, most recent first. Append-only from
// the pipeline; records are immutable and never deleted.
type ResultStore struct {
	mu      sync.Mutex
	results []models.GeneratedImage
}

// NewResultStore creates an empty result store.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Prepend adds a result to the front of the list.
func (s *ResultStore) Prepend(img models.GeneratedImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]models.GeneratedImage{img}, s.results...)
}

// List returns a copy of the results, most recent first.
func (s *ResultStore) List() []models.GeneratedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GeneratedImage, len(s.results))
	copy(out, s.results)
	return out
}

// Get returns a result by id.
func (s *ResultStore) Get(id uuid.UUID) (models.GeneratedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		if r.ID == id {
			return r, true
		}
	}
	return models.GeneratedImage{}, false
}

// Len returns the number of stored results.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
