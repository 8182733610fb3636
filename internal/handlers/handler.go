package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/credentials"
	"github.com/shopscene/studio/internal/llm"
	"github.com/shopscene/studio/internal/pipeline"
	"github.com/shopscene/studio/internal/store"
)

// Handler contains all HTTP handlers
type Handler struct {
	pipeline *pipeline.Pipeline
	presets  *store.PresetStore
	results  *store.ResultStore
	factory  *llm.Factory
	creds    *credentials.Store
	maxBatch int
}

// NewHandler creates a new handler. maxBatch caps the number of presets a
// single generate request may carry; zero means no cap.
func NewHandler(p *pipeline.Pipeline, presets *store.PresetStore, results *store.ResultStore, factory *llm.Factory, creds *credentials.Store, maxBatch int) *Handler {
	return &Handler{
		pipeline: p,
		presets:  presets,
		results:  results,
		factory:  factory,
		creds:    creds,
		maxBatch: maxBatch,
	}
}

// Register wires all routes onto the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/ws/progress", h.ProgressWS).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/generate", h.Generate).Methods("POST")
	api.HandleFunc("/recommend", h.Recommend).Methods("POST")
	api.HandleFunc("/edit", h.Edit).Methods("POST")
	api.HandleFunc("/state", h.GetState).Methods("GET")

	api.HandleFunc("/presets", h.ListPresets).Methods("GET")
	api.HandleFunc("/presets", h.CreatePreset).Methods("POST")
	api.HandleFunc("/presets/{id}", h.UpdatePreset).Methods("PUT")
	api.HandleFunc("/presets/{id}", h.DeletePreset).Methods("DELETE")
	api.HandleFunc("/selection", h.GetSelection).Methods("GET")
	api.HandleFunc("/selection", h.SetSelection).Methods("PUT")

	api.HandleFunc("/results", h.ListResults).Methods("GET")
	api.HandleFunc("/results/{id}", h.GetResult).Methods("GET")
	api.HandleFunc("/results/{id}/download", h.DownloadResult).Methods("GET")

	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
