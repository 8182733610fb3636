package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/llm"
	"github.com/shopscene/studio/internal/models"
)

// GetSettings handles GET /v1/settings. The credential itself is never
// echoed back; only whether one is configured.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg := h.factory.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"api_key_configured":     llm.CredentialAvailable(cfg),
		"base_url":               cfg.BaseURL,
		"model":                  cfg.ModelImage,
		"expand_system_template": cfg.ExpandSystemTemplate,
		"expand_user_template":   cfg.ExpandUserTemplate,
		"generate_template":      cfg.GenerateTemplate,
	})
}

// UpdateSettings handles PUT /v1/settings — replaces the shared service
// config, persists the credential, and invalidates cached adapters so the
// next call sees the new settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current := h.factory.Config()
	next := &llm.Config{
		APIKey:               req.APIKey,
		BaseURL:              current.BaseURL,
		ModelText:            current.ModelText,
		ModelImage:           current.ModelImage,
		ModelVision:          current.ModelVision,
		ExpandSystemTemplate: req.ExpandSystemTemplate,
		ExpandUserTemplate:   req.ExpandUserTemplate,
		GenerateTemplate:     req.GenerateTemplate,
		Extras:               current.Extras,
	}
	if req.BaseURL != "" {
		next.BaseURL = req.BaseURL
	}
	if req.Model != "" {
		next.ModelImage = req.Model
	}

	if err := h.creds.Save(req.APIKey); err != nil {
		log.Error().Err(err).Msg("Failed to persist credential")
		writeJSONError(w, http.StatusInternalServerError, "failed to persist credential")
		return
	}

	h.factory.SetConfig(next)
	log.Info().Bool("api_key_configured", next.APIKey != "").Msg("Settings updated")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"api_key_configured": next.APIKey != "",
	})
}
