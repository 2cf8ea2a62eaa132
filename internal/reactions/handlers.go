package reactions

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
)

// Handler serves the reactions endpoints.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a Handler backed by store.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type toggleRequest struct {
	ReactionType string `json:"reactionType"`
	Action       string `json:"action"`
}

// Get handles GET /{contentType}/{slug}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	contentType := chi.URLParam(r, "contentType")
	slug := decodedSlug(r)
	if err := validateContentType(contentType); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid content type"))
		return
	}
	if err := validateSlug(slug); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid slug"))
		return
	}

	state, err := h.store.Get(contentType, slug, UserHash(r))
	if err != nil {
		h.logger.Error("reactions: get failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Toggle handles POST /{contentType}/{slug}.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	contentType := chi.URLParam(r, "contentType")
	slug := decodedSlug(r)
	if err := validateContentType(contentType); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid content type"))
		return
	}
	if err := validateSlug(slug); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid slug"))
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.Action == "" {
		req.Action = ActionToggle
	}
	if err := validateReactionType(req.ReactionType); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid reaction type"))
		return
	}
	if err := validateAction(req.Action); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid action"))
		return
	}

	state, err := h.store.Toggle(contentType, slug, req.ReactionType, UserHash(r), req.Action)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		h.logger.Error("reactions: toggle failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// decodedSlug unescapes the slug path segment, falling back to the raw
// value when decoding fails.
func decodedSlug(r *http.Request) string {
	raw := chi.URLParam(r, "slug")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
