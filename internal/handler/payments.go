package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/utils"
)

type schedulePaymentRequest struct {
	TargetID      string    `json:"target_id" validate:"required,uuid"`
	Amount        float64   `json:"amount" validate:"gt=0"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
}

type recurringPaymentRequest struct {
	TargetID  string    `json:"target_id" validate:"required,uuid"`
	Amount    float64   `json:"amount" validate:"gt=0"`
	StartDate time.Time `json:"start_date" validate:"required"`
	Frequency string    `json:"frequency" validate:"required,oneof=weekly biweekly monthly quarterly yearly"`
}

// ProcessPayments settles the caller's due payments and returns the counters
func (h *Handler) ProcessPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	result, err := h.payments.ProcessAutomatedPayments(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ListPayments lists the caller's payments, optionally filtered by ?status=
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	status := models.PaymentStatus(r.URL.Query().Get("status"))
	payments, err := h.payments.GetUserPayments(r.Context(), userID, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if payments == nil {
		payments = []models.AutomatedPayment{}
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *Handler) ScheduleBillPayment(w http.ResponseWriter, r *http.Request) {
	h.scheduleOne(w, r, h.payments.ScheduleBillPayment)
}

func (h *Handler) ScheduleLoanRepayment(w http.ResponseWriter, r *http.Request) {
	h.scheduleOne(w, r, h.payments.ScheduleLoanRepayment)
}

func (h *Handler) SetupRecurringBillPayment(w http.ResponseWriter, r *http.Request) {
	h.scheduleRecurring(w, r, h.payments.SetupRecurringBillPayment)
}

func (h *Handler) SetupRecurringLoanRepayment(w http.ResponseWriter, r *http.Request) {
	h.scheduleRecurring(w, r, h.payments.SetupRecurringLoanRepayment)
}

type scheduleFunc func(ctx context.Context, userID, targetID string, amount float64, at time.Time) (*models.AutomatedPayment, error)

type recurringFunc func(ctx context.Context, userID, targetID string, amount float64, start time.Time, freq utils.Frequency) ([]*models.AutomatedPayment, error)

func (h *Handler) scheduleOne(w http.ResponseWriter, r *http.Request, schedule scheduleFunc) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req schedulePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	payment, err := schedule(r.Context(), userID, req.TargetID, req.Amount, req.ScheduledDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

func (h *Handler) scheduleRecurring(w http.ResponseWriter, r *http.Request, setup recurringFunc) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req recurringPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	freq, err := utils.ParseFrequency(req.Frequency)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	payments, err := setup(r.Context(), userID, req.TargetID, req.Amount, req.StartDate, freq)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, payments)
}

// CancelPayment cancels a pending payment. Cancelling a settled, already
// cancelled or unknown payment succeeds with cancelled=false.
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	paymentID, ok := pathID(r)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]bool{"cancelled": false})
		return
	}
	cancelled, err := h.payments.CancelPayment(r.Context(), userID, paymentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}
