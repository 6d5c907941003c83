package handlers

import (
	"net/http"

	"github.com/eldtechnologies/haikunft/internal/gate"
	"github.com/eldtechnologies/haikunft/internal/models"
)

// MediaResponse is the body of POST /generate-haiku-media.
type MediaResponse struct {
	Media string `json:"media"`
}

// GenerateHaikuMedia renders and uploads artwork for a haiku. The caller must
// hold a key of their account but need not own any token.
func (h *Handler) GenerateHaikuMedia(w http.ResponseWriter, r *http.Request) {
	var req models.SignedRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	adm, ok := h.admit(w, r, gate.OpMedia, &req)
	if !ok {
		return
	}
	m := adm.Media()

	url, err := h.media.Publish(r.Context(), m.Title, m.Haiku)
	if err != nil {
		h.internalError(w, r, "media", err)
		return
	}
	h.JSON(w, http.StatusOK, MediaResponse{Media: url})
}
