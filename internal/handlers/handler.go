package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/cache"
	"github.com/eldtechnologies/haikunft/internal/gate"
	"github.com/eldtechnologies/haikunft/internal/models"
	"github.com/eldtechnologies/haikunft/internal/near"
	"github.com/eldtechnologies/haikunft/internal/poet"
	"github.com/eldtechnologies/haikunft/internal/store"
)

// Admitter runs the admission checks for a signed request.
type Admitter interface {
	Admit(ctx context.Context, op gate.Operation, req *models.SignedRequest) (*gate.Admission, error)
}

// ContentGenerator produces haiku from the completion service.
type ContentGenerator interface {
	Generate(ctx context.Context, req poet.Request, n int) (models.Content, error)
}

// MediaPublisher renders a haiku and returns the public URL of the image.
type MediaPublisher interface {
	Publish(ctx context.Context, title string, haiku models.Haiku) (string, error)
}

// HaikuMinter records a haiku on the ledger.
type HaikuMinter interface {
	SetHaiku(ctx context.Context, record near.HaikuRecord) (models.Receipt, error)
}

// LedgerStatus reports whether the ledger node answers.
type LedgerStatus interface {
	Status(ctx context.Context) (json.RawMessage, error)
}

// Pinger is a dependency with a connectivity check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of Handler. Mints, Redis and Ledger are optional.
type Deps struct {
	Gate    Admitter
	Poet    ContentGenerator
	Results *cache.Results
	Media   MediaPublisher
	Minter  HaikuMinter
	Mints   store.MintStore
	Redis   Pinger
	Ledger  LedgerStatus
	Version string
	Logger  zerolog.Logger
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	gate    Admitter
	poet    ContentGenerator
	results *cache.Results
	media   MediaPublisher
	minter  HaikuMinter
	mints   store.MintStore
	redis   Pinger
	ledger  LedgerStatus
	version string
	logger  zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	results := d.Results
	if results == nil {
		results = cache.NewResults()
	}
	version := d.Version
	if version == "" {
		version = defaultVersion
	}
	return &Handler{
		gate:    d.Gate,
		poet:    d.Poet,
		results: results,
		media:   d.Media,
		minter:  d.Minter,
		mints:   d.Mints,
		redis:   d.Redis,
		ledger:  d.Ledger,
		version: version,
		logger:  d.Logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Text sends a plain-text body.
func (h *Handler) Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// Message sends the {"message": ...} body used for client-facing refusals.
func (h *Handler) Message(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"message": message})
}

// internalError logs err and sends the generic 500 body.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, component string, err error) {
	h.logger.Error().
		Err(err).
		Str("component", component).
		Str("path", r.URL.Path).
		Msg("request failed")
	h.Error(w, http.StatusInternalServerError, "internal error")
}

// decodeBody reads a JSON request body. It writes the 400 response and
// returns false when the body cannot be parsed.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		h.Message(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// admit runs the gate and writes the denial when it refuses.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, op gate.Operation, req *models.SignedRequest) (*gate.Admission, bool) {
	adm, err := h.gate.Admit(r.Context(), op, req)
	if err != nil {
		if d, ok := gate.AsDenial(err); ok {
			h.Message(w, http.StatusBadRequest, d.Message)
			return nil, false
		}
		h.internalError(w, r, "gate", err)
		return nil, false
	}
	return adm, true
}
