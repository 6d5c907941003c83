package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/haikunft/internal/models"
)

// MintsResponse lists the recorded mints of a token.
type MintsResponse struct {
	TokenID models.TokenID `json:"token_id"`
	Mints   []models.Mint  `json:"mints"`
}

// ListMints returns the mint history of a token, newest first.
func (h *Handler) ListMints(w http.ResponseWriter, r *http.Request) {
	if h.mints == nil {
		h.Error(w, http.StatusServiceUnavailable, msgStoreNotConfigured)
		return
	}

	id := models.TokenID(chi.URLParam(r, "id"))
	if id.IsZero() {
		h.Error(w, http.StatusBadRequest, "token id is required")
		return
	}

	limit := defaultMintHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	mints, err := h.mints.ListMints(r.Context(), id, limit)
	if err != nil {
		h.internalError(w, r, "store", err)
		return
	}
	h.JSON(w, http.StatusOK, MintsResponse{TokenID: id, Mints: mints})
}
