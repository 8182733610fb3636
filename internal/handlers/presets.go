package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/models"
	"github.com/shopscene/studio/internal/store"
)

// ListPresets handles GET /v1/presets — the library merged with the
// current AI recommendations.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"presets": h.presets.List(),
	})
}

// CreatePreset handles POST /v1/presets
func (h *Handler) CreatePreset(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	preset, err := h.presets.Create(req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Info().Str("preset_id", preset.ID.String()).Str("name", preset.Name).Msg("Preset created")
	writeJSON(w, http.StatusCreated, preset)
}

// UpdatePreset handles PUT /v1/presets/{id}
func (h *Handler) UpdatePreset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	var req models.UpdatePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	preset, err := h.presets.Update(id, req)
	if err != nil {
		if errors.Is(err, store.ErrPresetNotFound) {
			writeJSONError(w, http.StatusNotFound, "preset not found")
			return
		}
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

// DeletePreset handles DELETE /v1/presets/{id}
func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	if err := h.presets.Delete(id); err != nil {
		writeJSONError(w, http.StatusNotFound, "preset not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSelection handles GET /v1/selection
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"preset_ids": h.presets.Selection(),
	})
}

// SetSelection handles PUT /v1/selection
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PresetIDs []uuid.UUID `json:"preset_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.presets.SetSelection(req.PresetIDs)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"preset_ids": h.presets.Selection(),
	})
}
