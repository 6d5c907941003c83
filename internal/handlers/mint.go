package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/eldtechnologies/haikunft/internal/gate"
	"github.com/eldtechnologies/haikunft/internal/metrics"
	"github.com/eldtechnologies/haikunft/internal/models"
	"github.com/eldtechnologies/haikunft/internal/near"
)

// SetHaiku renders the haiku artwork, records the haiku on the ledger and
// echoes the ledger's outcome.
func (h *Handler) SetHaiku(w http.ResponseWriter, r *http.Request) {
	var req models.SignedRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	adm, ok := h.admit(w, r, gate.OpSet, &req)
	if !ok {
		return
	}
	set := adm.Set()

	if h.minter == nil {
		h.Error(w, http.StatusServiceUnavailable, "ledger signing is not configured")
		return
	}

	mediaURL, err := h.media.Publish(r.Context(), set.Title, set.Haiku)
	if err != nil {
		h.internalError(w, r, "media", err)
		return
	}

	receipt, err := h.minter.SetHaiku(r.Context(), near.HaikuRecord{
		TokenID:  set.ID,
		Haiku:    string(set.Haiku),
		MediaURL: mediaURL,
		Title:    set.Title,
	})
	if err != nil {
		metrics.Mints.WithLabelValues("failed").Inc()
		h.internalError(w, r, "ledger", err)
		return
	}
	metrics.Mints.WithLabelValues("ok").Inc()

	h.recordMint(r.Context(), &models.Mint{
		TokenID:   set.ID,
		AccountID: adm.AccountID,
		Title:     set.Title,
		Haiku:     string(set.Haiku),
		MediaURL:  mediaURL,
		TxHash:    receipt.TxHash,
	})

	h.JSON(w, http.StatusOK, receipt)
}

// recordMint appends to the audit log. Failures are logged only; the ledger
// already holds the haiku.
func (h *Handler) recordMint(ctx context.Context, m *models.Mint) {
	if h.mints == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := h.mints.RecordMint(ctx, m); err != nil {
		h.logger.Error().
			Err(err).
			Str("component", "store").
			Str("token_id", m.TokenID.String()).
			Str("tx_hash", m.TxHash).
			Msg("failed to record mint")
	}
}
