package handler

import "net/http"

// GetCreditScore always answers 200; the service falls back to a neutral score
func (h *Handler) GetCreditScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.credit.GetCreditScore(r.Context(), userID))
}

func (h *Handler) RefreshCreditScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	data, err := h.credit.UpdateCreditScore(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}
