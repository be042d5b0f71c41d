package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"depictsgo/pkg/store"
	"depictsgo/pkg/wikidata"
)

// EditHandler records which depicts values a curator confirmed for an
// artwork. Pushing the statements upstream is out of scope here; the record
// is what the suggestion flow needs.
type EditHandler struct {
	edits store.EditStore
}

// NewEditHandler creates an EditHandler.
func NewEditHandler(edits store.EditStore) *EditHandler {
	return &EditHandler{edits: edits}
}

type createEditRequest struct {
	ArtworkQID string `json:"artwork_qid"`
	DepictsQID string `json:"depicts_qid"`
	Username   string `json:"username"`
}

type editDTO struct {
	ID         string    `json:"id"`
	ArtworkQID string    `json:"artwork_qid"`
	DepictsQID string    `json:"depicts_qid"`
	Username   string    `json:"username,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toEditDTO(e *store.Edit) editDTO {
	return editDTO{
		ID:         e.ID,
		ArtworkQID: wikidata.FormatQID(e.ArtworkID),
		DepictsQID: wikidata.FormatQID(e.DepictsID),
		Username:   e.Username,
		CreatedAt:  e.CreatedAt,
	}
}

// HandleCreate serves POST /api/edits.
func (h *EditHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	artworkID, err := wikidata.ParseQID(req.ArtworkQID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	depictsID, err := wikidata.ParseQID(req.DepictsQID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	edit := &store.Edit{
		ID:        uuid.NewString(),
		ArtworkID: artworkID,
		DepictsID: depictsID,
		Username:  req.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.edits.SaveEdit(r.Context(), edit); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	writeJSON(w, http.StatusCreated, toEditDTO(edit))
}

// HandleList serves GET /api/item/{qid}/edits.
func (h *EditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	artworkID, err := wikidata.ParseQID(r.PathValue("qid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	edits, err := h.edits.EditsForArtwork(r.Context(), artworkID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	out := make([]editDTO, 0, len(edits))
	for _, e := range edits {
		out = append(out, toEditDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}
