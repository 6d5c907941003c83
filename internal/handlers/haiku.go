package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eldtechnologies/haikunft/internal/cache"
	"github.com/eldtechnologies/haikunft/internal/gate"
	"github.com/eldtechnologies/haikunft/internal/models"
	"github.com/eldtechnologies/haikunft/internal/poet"
)

// getHaikuBody is the body of POST /get-haiku, which is either a signed
// request or a bare {adjective, topic} pair.
type getHaikuBody struct {
	models.SignedRequest
	Adjective string `json:"adjective"`
	Topic     string `json:"topic"`
}

// GetHaiku generates three haiku without caching them. A body carrying a
// signed envelope goes through the gate; a bare body does not.
func (h *Handler) GetHaiku(w http.ResponseWriter, r *http.Request) {
	var body getHaikuBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.Text(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if body.HasEnvelope() {
		h.previewSigned(w, r, &body.SignedRequest)
		return
	}

	content, err := h.poet.Generate(r.Context(), poet.Request{Adjective: body.Adjective, Topic: body.Topic}, previewCount)
	if err != nil {
		h.Text(w, http.StatusBadRequest, msgGenerationFailed)
		return
	}
	h.JSON(w, http.StatusOK, content)
}

func (h *Handler) previewSigned(w http.ResponseWriter, r *http.Request, req *models.SignedRequest) {
	adm, ok := h.admit(w, r, gate.OpPreview, req)
	if !ok {
		return
	}

	tr := adm.Token()
	content, err := h.poet.Generate(r.Context(), poet.Request{Adjective: tr.Adjective, Topic: tr.Topic}, previewCount)
	if err != nil {
		h.Message(w, http.StatusBadRequest, msgGenerationFailed)
		return
	}
	h.JSON(w, http.StatusOK, content)
}

// GenerateAIPrompt generates the haiku for a token once and caches it.
// Later calls for the same token are refused in favour of GetAIPrompt.
func (h *Handler) GenerateAIPrompt(w http.ResponseWriter, r *http.Request) {
	var req models.SignedRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	adm, ok := h.admit(w, r, gate.OpGenerate, &req)
	if !ok {
		return
	}
	tr := adm.Token()

	if err := h.results.Claim(tr.ID); err != nil {
		if !errors.Is(err, cache.ErrAlreadyGenerated) && !errors.Is(err, cache.ErrInProgress) {
			h.internalError(w, r, "cache", err)
			return
		}
		h.logger.Info().
			Str("token_id", tr.ID.String()).
			Str("account_id", adm.AccountID).
			Err(err).
			Msg("generation refused")
		h.Message(w, http.StatusBadRequest, alreadyGeneratedMessage(tr.ID))
		return
	}
	defer h.results.Release(tr.ID)

	content, err := h.poet.Generate(r.Context(), poet.Request{Adjective: tr.Adjective, Topic: tr.Topic}, generateCount)
	if err != nil {
		h.Message(w, http.StatusBadRequest, msgGenerationFailed)
		return
	}

	if !h.results.Put(tr.ID, content) {
		h.Message(w, http.StatusBadRequest, alreadyGeneratedMessage(tr.ID))
		return
	}
	for _, item := range content {
		if !item.Valid() {
			h.results.Delete(tr.ID)
			h.logger.Error().
				Str("component", "poet").
				Str("token_id", tr.ID.String()).
				Str("haiku", string(item)).
				Msg("generated haiku failed validation")
			h.Message(w, http.StatusBadRequest, msgGenerationFailed)
			return
		}
	}

	h.logger.Info().
		Str("token_id", tr.ID.String()).
		Str("account_id", adm.AccountID).
		Msg("haiku generated")
	h.JSON(w, http.StatusOK, content)
}

// GetAIPrompt returns the cached haiku for a token.
func (h *Handler) GetAIPrompt(w http.ResponseWriter, r *http.Request) {
	var req models.SignedRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	adm, ok := h.admit(w, r, gate.OpRead, &req)
	if !ok {
		return
	}
	id := adm.Token().ID

	content, found := h.results.Get(id)
	if !found {
		h.Message(w, http.StatusBadRequest, notGeneratedMessage(id))
		return
	}
	h.JSON(w, http.StatusOK, content)
}
