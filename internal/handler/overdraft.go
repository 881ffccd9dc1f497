package handler

import (
	"net/http"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
)

type repayOverdraftRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

func (h *Handler) OverdraftEligibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	eligibility, err := h.overdrafts.CheckEligibility(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, eligibility)
}

// OverdraftTerms returns eligibility with the reference key rate when known
func (h *Handler) OverdraftTerms(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	terms, err := h.overdrafts.GetOverdraftTerms(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, terms)
}

func (h *Handler) ListOverdrafts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	overdrafts, err := h.overdrafts.GetUserOverdrafts(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if overdrafts == nil {
		overdrafts = []models.Overdraft{}
	}
	respondJSON(w, http.StatusOK, overdrafts)
}

func (h *Handler) RepayOverdraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req repayOverdraftRequest
	if !h.decode(w, r, &req) {
		return
	}
	overdraftID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusNotFound, repository.ErrOverdraftNotFound.Error())
		return
	}
	od, err := h.overdrafts.RepayOverdraft(r.Context(), userID, overdraftID, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, od)
}
