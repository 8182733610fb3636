package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// ListResults handles GET /v1/results — generated images, most recent
// first.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": h.results.List(),
	})
}

// GetResult handles GET /v1/results/{id}
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid result id")
		return
	}
	result, ok := h.results.Get(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "result not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DownloadResult handles GET /v1/results/{id}/download — serves the image
// payload as an attachment with a generated filename. The stored record is
// not modified. Remote URLs are redirected rather than proxied.
func (h *Handler) DownloadResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid result id")
		return
	}
	result, ok := h.results.Get(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "result not found")
		return
	}

	if !strings.HasPrefix(result.URL, "data:") {
		http.Redirect(w, r, result.URL, http.StatusFound)
		return
	}

	mimeType, payload, ok := splitDataURL(result.URL)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "malformed stored image")
		return
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		log.Error().Err(err).Str("result_id", id.String()).Msg("Failed to decode stored image")
		writeJSONError(w, http.StatusInternalServerError, "malformed stored image")
		return
	}

	filename := downloadFilename(result.Vibe, id, mimeType)
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("Download write interrupted")
	}
}

// splitDataURL splits data:<mime>;base64,<payload> into its parts.
func splitDataURL(dataURL string) (mimeType, payload string, ok bool) {
	rest := strings.TrimPrefix(dataURL, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", "", false
	}
	meta := rest[:comma]
	mimeType = strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return mimeType, rest[comma+1:], true
}

// downloadFilename builds a stable filename from the preset name and result
// id, e.g. scene-minimalist-studio-1a2b3c4d.png.
func downloadFilename(vibe string, id uuid.UUID, mimeType string) string {
	slug := strings.ToLower(vibe)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "scene"
	}

	ext := "png"
	switch mimeType {
	case "image/jpeg", "image/jpg":
		ext = "jpg"
	case "image/webp":
		ext = "webp"
	case "image/gif":
		ext = "gif"
	}
	return fmt.Sprintf("scene-%s-%s.%s", slug, id.String()[:8], ext)
}
