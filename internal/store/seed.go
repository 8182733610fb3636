package store

import (
	"github.com/google/uuid"
	"github.com/shopscene/studio/internal/models"
)

// DefaultPresets returns the built-in scene library a fresh process starts
// with. Sellers extend or replace these via the preset CRUD API.
func DefaultPresets() []models.ScenarioPreset {
	return []models.ScenarioPreset{
		{
			ID:          uuid.New(),
			Name:        "Minimalist Studio",
			Description: "a clean minimalist studio with a seamless light gray backdrop and a single soft key light",
			Quality:     "studio photography, soft shadows, 4k",
			Icon:        "studio",
		},
		{
			ID:          uuid.New(),
			Name:        "Rustic Outdoor",
			Description: "a weathered wooden table outdoors at golden hour with warm sunlight and greenery in the background",
			Quality:     "natural light, shallow depth of field",
			Icon:        "outdoor",
		},
		{
			ID:          uuid.New(),
			Name:        "Marble Luxury",
			Description: "a polished white marble surface with gold accents and diffused window light",
			Quality:     "editorial, premium, high detail",
			Icon:        "luxury",
		},
		{
			ID:          uuid.New(),
			Name:        "Cozy Home",
			Description: "a warm living room shelf with soft bokeh fairy lights and neutral textiles",
			Quality:     "lifestyle photography, warm tones",
			Icon:        "home",
		},
	}
}
