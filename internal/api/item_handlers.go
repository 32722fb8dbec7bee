package api

import (
	"database/sql"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// handleUpload accepts raw WAV bytes and creates a new processing item in
// IN_PROGRESS state. The pipeline picks it up asynchronously; the summary
// is returned right away so clients can insert it optimistically.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	maxBytes := s.app.Config.Recording.MaxUploadBytes
	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		RespondWithError(w, http.StatusRequestEntityTooLarge, "Audio payload too large")
		return
	}
	if len(audio) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Empty audio payload")
		return
	}

	item, err := s.store.CreateItem(uuid.NewString(), user.ID, time.Now().Unix(), audio)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	RespondWithJSON(w, http.StatusOK, item)
}

// handleGetAll returns the list summaries of all items of the caller.
func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	items, err := s.store.GetItemsByUser(user.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list items")
		return
	}
	RespondWithJSON(w, http.StatusOK, models.GetAllResponse{Items: items})
}

// handleGetDetails returns the detail payload for one item of the caller.
func (s *Server) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	itemID := chi.URLParam(r, "itemID")
	details, err := s.store.GetItemDetails(itemID, user.ID)
	if err == sql.ErrNoRows {
		RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load item")
		return
	}
	RespondWithJSON(w, http.StatusOK, details)
}
