package models

import (
	"time"

	"github.com/google/uuid"
)

// ScenarioPreset is a reusable scene description template plus a style tag.
// Presets come from the user-managed library or from an AI recommendation
// pass; recommended ones are ephemeral and replaced wholesale on each
// recommendation call.
type ScenarioPreset struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"` // template text fed to prompt expansion
	Quality       string    `json:"quality"`     // style tag appended to the generation prompt
	Icon          string    `json:"icon,omitempty"`
	IsRecommended bool      `json:"is_recommended,omitempty"`
}

// GeneratedImage is one pipeline output. Immutable once appended; the
// Prompt field is always the exact expanded text sent to the image call.
type GeneratedImage struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"` // data URL or remote URL
	Prompt    string    `json:"prompt"`
	Vibe      string    `json:"vibe"` // source preset name
	CreatedAt time.Time `json:"created_at"`
}

// Phase is the pipeline phase of the single ProcessingState value.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAnalyzingImage  Phase = "analyzing_image"
	PhaseExpandingPrompt Phase = "expanding_prompt"
	PhaseGeneratingImage Phase = "generating_image"
	PhaseCompleted       Phase = "completed"
	PhaseError           Phase = "error"
)

// ProcessingState is the single mutable pipeline status value, overwritten
// on every phase transition.
type ProcessingState struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// Idle reports whether a new operation may start: only one batch runs at a
// time, and a finished (completed or failed) pipeline may be restarted.
func (s ProcessingState) Idle() bool {
	switch s.Phase {
	case PhaseIdle, PhaseCompleted, PhaseError:
		return true
	default:
		return false
	}
}

// GenerateRequest is the POST /v1/generate body.
type GenerateRequest struct {
	Image            string      `json:"image"` // data URL or bare base64 of the product photo
	PresetIDs        []uuid.UUID `json:"preset_ids"`
	CustomContext    string      `json:"custom_context,omitempty"`
	RemoveBackground bool        `json:"remove_background,omitempty"`
}

// RecommendRequest is the POST /v1/recommend body.
type RecommendRequest struct {
	Image string `json:"image"`
}

// EditRequest is the POST /v1/edit body. Either ResultID (edit a stored
// result) or Image must be set; Mask's white region marks the area to modify.
type EditRequest struct {
	ResultID *uuid.UUID `json:"result_id,omitempty"`
	Image    string     `json:"image,omitempty"`
	Mask     string     `json:"mask"`
	Prompt   string     `json:"prompt"`
}

// CreatePresetRequest is the POST /v1/presets body.
type CreatePresetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quality     string `json:"quality,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// UpdatePresetRequest is the PUT /v1/presets/{id} body.
type UpdatePresetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quality     string `json:"quality,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Settings is the GET/PUT /v1/settings payload. The API key is persisted
// across restarts; everything else lives for the process lifetime.
type Settings struct {
	APIKey               string `json:"api_key"`
	BaseURL              string `json:"base_url,omitempty"`
	Model                string `json:"model,omitempty"`
	ExpandSystemTemplate string `json:"expand_system_template,omitempty"`
	ExpandUserTemplate   string `json:"expand_user_template,omitempty"`
	GenerateTemplate     string `json:"generate_template,omitempty"`
}
