package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redresshq/redress/internal/domain"
	"github.com/redresshq/redress/internal/store"
)

type CaseHandler struct {
	cases domain.CaseStore
}

func NewCaseHandler(cases domain.CaseStore) *CaseHandler {
	return &CaseHandler{cases: cases}
}

func (h *CaseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.cases.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load case")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CaseHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	cases, err := h.cases.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cases")
		return
	}
	if cases == nil {
		cases = []domain.Case{}
	}

	writeJSON(w, http.StatusOK, cases)
}
