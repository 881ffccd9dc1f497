package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dan9191/bank-autopay/internal/middleware"
	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
	"github.com/Dan9191/bank-autopay/internal/service"
	"github.com/Dan9191/bank-autopay/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// PaymentService is the settlement API used by the handlers
type PaymentService interface {
	ProcessAutomatedPayments(ctx context.Context, userID string) (models.SettlementResult, error)
	GetUserPayments(ctx context.Context, userID string, status models.PaymentStatus) ([]models.AutomatedPayment, error)
	ScheduleBillPayment(ctx context.Context, userID, billID string, amount float64, scheduledDate time.Time) (*models.AutomatedPayment, error)
	ScheduleLoanRepayment(ctx context.Context, userID, loanID string, amount float64, scheduledDate time.Time) (*models.AutomatedPayment, error)
	SetupRecurringBillPayment(ctx context.Context, userID, billID string, amount float64, start time.Time, freq utils.Frequency) ([]*models.AutomatedPayment, error)
	SetupRecurringLoanRepayment(ctx context.Context, userID, loanID string, amount float64, start time.Time, freq utils.Frequency) ([]*models.AutomatedPayment, error)
	CancelPayment(ctx context.Context, userID, paymentID string) (bool, error)
}

// OverdraftService is the overdraft API used by the handlers
type OverdraftService interface {
	CheckEligibility(ctx context.Context, userID string) (*models.OverdraftEligibility, error)
	GetOverdraftTerms(ctx context.Context, userID string) (*models.OverdraftTerms, error)
	GetUserOverdrafts(ctx context.Context, userID string) ([]models.Overdraft, error)
	RepayOverdraft(ctx context.Context, userID, overdraftID string, amount float64) (*models.Overdraft, error)
}

// CreditService is the credit score API used by the handlers
type CreditService interface {
	GetCreditScore(ctx context.Context, userID string) *models.CreditScoreData
	UpdateCreditScore(ctx context.Context, userID string) (*models.CreditScoreData, error)
}

// NotificationService is the notification API used by the handlers
type NotificationService interface {
	GetNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.PaymentNotification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	UnreadNotificationCount(ctx context.Context, userID string) (int, error)
}

type Handler struct {
	payments      PaymentService
	overdrafts    OverdraftService
	credit        CreditService
	notifications NotificationService
	validate      *validator.Validate
	log           *logrus.Logger
}

func NewHandler(payments PaymentService, overdrafts OverdraftService, credit CreditService, notifications NotificationService, log *logrus.Logger) *Handler {
	return &Handler{
		payments:      payments,
		overdrafts:    overdrafts,
		credit:        credit,
		notifications: notifications,
		validate:      validator.New(),
		log:           log,
	}
}

// Routes registers the public health check on r and every other route
// behind auth.
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(auth)

	api.HandleFunc("/payments", h.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/payments/process", h.ProcessPayments).Methods(http.MethodPost)
	api.HandleFunc("/payments/bills", h.ScheduleBillPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/loans", h.ScheduleLoanRepayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/bills/recurring", h.SetupRecurringBillPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/loans/recurring", h.SetupRecurringLoanRepayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id}/cancel", h.CancelPayment).Methods(http.MethodPost)

	api.HandleFunc("/overdraft/eligibility", h.OverdraftEligibility).Methods(http.MethodGet)
	api.HandleFunc("/overdraft/terms", h.OverdraftTerms).Methods(http.MethodGet)
	api.HandleFunc("/overdrafts", h.ListOverdrafts).Methods(http.MethodGet)
	api.HandleFunc("/overdrafts/{id}/repay", h.RepayOverdraft).Methods(http.MethodPost)

	api.HandleFunc("/credit-score", h.GetCreditScore).Methods(http.MethodGet)
	api.HandleFunc("/credit-score/refresh", h.RefreshCreditScore).Methods(http.MethodPost)

	api.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.MarkAllNotificationsRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User ID not found in context")
	}
	return userID, ok
}

// pathID returns the {id} route variable when it is a well-formed UUID
func pathID(r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// decode reads a JSON body into dst and validates it
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// fail maps service errors to HTTP statuses. Unexpected errors are logged and
// reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case service.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidTarget),
		errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidDate):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrOverdraftNotActive):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "Invalid field " + fe.Field() + ": failed on " + fe.Tag()
	}
	return "Invalid request"
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
