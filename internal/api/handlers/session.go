package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/redresshq/redress/internal/dialog"
	"github.com/redresshq/redress/internal/domain"
	"github.com/redresshq/redress/internal/store"
)

type SessionHandler struct {
	orch      *dialog.Orchestrator
	extractor domain.Extractor
	messages  domain.MessageStore
	logger    *zap.Logger
}

func NewSessionHandler(orch *dialog.Orchestrator, extractor domain.Extractor, messages domain.MessageStore, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{orch: orch, extractor: extractor, messages: messages, logger: logger}
}

type turnRequest struct {
	Message string `json:"message"`
}

// PostTurn runs one conversational turn: extract facts from the raw
// message, then step the session. An extraction failure degrades to an
// empty delta: the turn still happens and the last question is repeated.
func (h *SessionHandler) PostTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	delta, err := h.extractor.ExtractFacts(r.Context(), req.Message)
	if err != nil {
		h.logger.Warn("fact extraction failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		delta = nil
	}

	resp, err := h.orch.Step(r.Context(), sessionID, req.Message, delta)
	if err != nil {
		if errors.Is(err, dialog.ErrSessionTerminated) {
			writeError(w, http.StatusConflict, "session already has a final decision")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process turn")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// PostFacts accepts a typed fact delta directly, bypassing extraction.
// Used by integrations that already have structured data.
func (h *SessionHandler) PostFacts(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	var delta domain.FactDelta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if delta.Category != nil && !domain.ValidCategory(string(*delta.Category)) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	// Slot states are owned by the tracker: a client supplies values, not
	// knowledge states. An omitted state means known; anything else other
	// than an explicit unknown is rejected.
	for name, v := range delta.Slots {
		switch v.State {
		case "":
			v.State = domain.SlotKnown
			delta.Slots[name] = v
		case domain.SlotKnown, domain.SlotUnknown:
		default:
			writeError(w, http.StatusBadRequest, "invalid slot state")
			return
		}
	}

	resp, err := h.orch.Step(r.Context(), sessionID, "", &delta)
	if err != nil {
		if errors.Is(err, dialog.ErrSessionTerminated) {
			writeError(w, http.StatusConflict, "session already has a final decision")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process facts")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	sess, err := h.orch.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// GetMessages returns the session transcript in turn order.
func (h *SessionHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	msgs, err := h.messages.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	if msgs == nil {
		msgs = []domain.TurnMessage{}
	}

	writeJSON(w, http.StatusOK, msgs)
}
