package http

import (
	"errors"
	"io"
	"net/http"

	"estatehub-backend/internal/identity"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/storage"

	"github.com/gorilla/mux"
)

// ArtifactHandler serves stored payment proofs and ticket photos.
type ArtifactHandler struct {
	reader storage.ArtifactReader
}

func NewArtifactHandler(reader storage.ArtifactReader) *ArtifactHandler {
	return &ArtifactHandler{reader: reader}
}

// HandleDownload streams the artifact stored under the {key} path variable.
func (h *ArtifactHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		http.Error(w, "Missing key", http.StatusBadRequest)
		return
	}

	body, contentType, err := h.reader.Open(r.Context(), key)
	switch {
	case errors.Is(err, storage.ErrInvalidKey):
		http.Error(w, "Invalid key", http.StatusBadRequest)
		return
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "File not found", http.StatusNotFound)
		return
	case err != nil:
		logger.ErrorContext(r.Context(), "Failed to open artifact", "key", key, "error", err)
		http.Error(w, "Failed to read file", http.StatusServiceUnavailable)
		return
	}
	defer body.Close()

	if actor, ok := identity.FromContext(r.Context()); ok {
		logger.Debug("Serving artifact", "key", key, "actor_id", actor.ID)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if _, err := io.Copy(w, body); err != nil {
		logger.Warn("Artifact stream interrupted", "key", key, "error", err)
	}
}
