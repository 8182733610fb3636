package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopscene/studio/internal/models"
)

var (
	// ErrPresetNotFound is returned for CRUD operations on unknown ids and
	// for edits that target an ephemeral recommended preset.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrInvalidPreset is returned when a create or update is missing a
	// name or description.
	ErrInvalidPreset = errors.New("preset requires a name and a description")
)

// PresetStore holds the user-managed preset library, the ephemeral
// AI-recommended list, and the active selection. Process-lifetime only.
//
// Recommended presets are merged with the library for display and
// resolution, but never pass through the CRUD path: each recommendation
// call replaces the whole list.
type PresetStore struct {
	mu          sync.Mutex
	library     []models.ScenarioPreset
	recommended []models.ScenarioPreset
	selected    map[uuid.UUID]bool
}

// NewPresetStore creates a store seeded with the given library presets.
func NewPresetStore(seed []models.ScenarioPreset) *PresetStore {
	s := &PresetStore{
		library:  make([]models.ScenarioPreset, 0, len(seed)),
		selected: make(map[uuid.UUID]bool),
	}
	s.library = append(s.library, seed...)
	return s
}

// List returns the combined library plus recommended presets, in display
// order (library first).
func (s *PresetStore) List() []models.ScenarioPreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScenarioPreset, 0, len(s.library)+len(s.recommended))
	out = append(out, s.library...)
	out = append(out, s.recommended...)
	return out
}

// Get resolves a preset id against the combined library plus recommended
// set.
func (s *PresetStore) Get(id uuid.UUID) (models.ScenarioPreset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.library {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range s.recommended {
		if p.ID == id {
			return p, true
		}
	}
	return models.ScenarioPreset{}, false
}

// Create adds a new library preset with a fresh id.
func (s *PresetStore) Create(req models.CreatePresetRequest) (models.ScenarioPreset, error) {
	if req.Name == "" || req.Description == "" {
		return models.ScenarioPreset{}, ErrInvalidPreset
	}
	preset := models.ScenarioPreset{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Quality:     req.Quality,
		Icon:        req.Icon,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.library = append(s.library, preset)
	return preset, nil
}

// Update overwrites a library preset's name, description, quality, and icon
// by id. Recommended presets cannot be edited.
func (s *PresetStore) Update(id uuid.UUID, req models.UpdatePresetRequest) (models.ScenarioPreset, error) {
	if req.Name == "" || req.Description == "" {
		return models.ScenarioPreset{}, ErrInvalidPreset
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.library {
		if s.library[i].ID == id {
			s.library[i].Name = req.Name
			s.library[i].Description = req.Description
			s.library[i].Quality = req.Quality
			s.library[i].Icon = req.Icon
			return s.library[i], nil
		}
	}
	return models.ScenarioPreset{}, ErrPresetNotFound
}

// Delete removes a library preset by id and clears the id from the active
// selection.
func (s *PresetStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.library {
		if s.library[i].ID == id {
			s.library = append(s.library[:i], s.library[i+1:]...)
			delete(s.selected, id)
			return nil
		}
	}
	return ErrPresetNotFound
}

// ReplaceRecommended replaces the ephemeral recommended list wholesale,
// building a preset per scenario description with a fresh id. Stale
// recommended ids are dropped from the selection.
func (s *PresetStore) ReplaceRecommended(descriptions []string) []models.ScenarioPreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, old := range s.recommended {
		delete(s.selected, old.ID)
	}
	s.recommended = make([]models.ScenarioPreset, 0, len(descriptions))
	for i, desc := range descriptions {
		s.recommended = append(s.recommended, models.ScenarioPreset{
			ID:            uuid.New(),
			Name:          fmt.Sprintf("AI Scene %d", i+1),
			Description:   desc,
			Quality:       "professional product photography, high detail",
			IsRecommended: true,
		})
	}
	out := make([]models.ScenarioPreset, len(s.recommended))
	copy(out, s.recommended)
	return out
}

// SetSelection replaces the active selection. Unknown ids are kept out.
func (s *PresetStore) SetSelection(ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if s.containsLocked(id) {
			s.selected[id] = true
		}
	}
}

// Selection returns the currently selected preset ids in display order.
func (s *PresetStore) Selection() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(s.selected))
	for _, p := range s.library {
		if s.selected[p.ID] {
			out = append(out, p.ID)
		}
	}
	for _, p := range s.recommended {
		if s.selected[p.ID] {
			out = append(out, p.ID)
		}
	}
	return out
}

func (s *PresetStore) containsLocked(id uuid.UUID) bool {
	for _, p := range s.library {
		if p.ID == id {
			return true
		}
	}
	for _, p := range s.recommended {
		if p.ID == id {
			return true
		}
	}
	return false
}
