package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/models"
	"github.com/shopscene/studio/internal/pipeline"
)

// Generate handles POST /v1/generate — starts a batch over the selected
// presets and returns immediately; progress streams via /ws/progress.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		writeJSONError(w, http.StatusBadRequest, "image is required")
		return
	}
	if len(req.PresetIDs) == 0 {
		req.PresetIDs = h.presets.Selection()
	}
	if len(req.PresetIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no presets selected")
		return
	}
	if h.maxBatch > 0 && len(req.PresetIDs) > h.maxBatch {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("at most %d presets per batch", h.maxBatch))
		return
	}

	if err := h.pipeline.StartGenerate(req); err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			writeJSONError(w, http.StatusConflict, "a generation is already running")
			return
		}
		log.Error().Err(err).Msg("Failed to start generation")
		writeJSONError(w, http.StatusInternalServerError, "failed to start generation")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"state":   h.pipeline.State(),
		"presets": len(req.PresetIDs),
	})
}

// Recommend handles POST /v1/recommend — analyzes the product photo and
// replaces the recommended preset list.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		writeJSONError(w, http.StatusBadRequest, "image is required")
		return
	}

	if err := h.pipeline.StartRecommend(req.Image); err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			writeJSONError(w, http.StatusConflict, "another operation is already running")
			return
		}
		log.Error().Err(err).Msg("Failed to start recommendation")
		writeJSONError(w, http.StatusInternalServerError, "failed to start recommendation")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"state": h.pipeline.State()})
}

// Edit handles POST /v1/edit — masked inpainting of a stored result or an
// uploaded image.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req models.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image := req.Image
	if req.ResultID != nil {
		result, ok := h.results.Get(*req.ResultID)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "result not found")
			return
		}
		image = result.URL
	}
	if image == "" || req.Mask == "" {
		writeJSONError(w, http.StatusBadRequest, "image and mask are required")
		return
	}
	if req.Prompt == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	if err := h.pipeline.StartEdit(image, req.Mask, req.Prompt); err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			writeJSONError(w, http.StatusConflict, "another operation is already running")
			return
		}
		log.Error().Err(err).Msg("Failed to start edit")
		writeJSONError(w, http.StatusInternalServerError, "failed to start edit")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"state": h.pipeline.State()})
}

// GetState handles GET /v1/state — the current ProcessingState snapshot.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pipeline.State())
}
