package paymenthandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taskpay/internal/domain/payment"
	"taskpay/internal/domain/task"
	"taskpay/internal/transport/http/api"
	"taskpay/internal/transport/http/middleware"
	"taskpay/internal/transport/http/shared"
)

type Handler struct {
	Service *payment.Service
}

func NewHandler(service *payment.Service) *Handler {
	return &Handler{Service: service}
}

type paymentPayload struct {
	Month         string   `json:"month"`
	Date          string   `json:"date"`
	DueDate       string   `json:"dueDate"`
	BaseSalary    float64  `json:"baseSalary"`
	TaskIDs       []string `json:"taskIds"`
	Bonus         float64  `json:"bonus"`
	Allowances    float64  `json:"allowances"`
	Deductions    float64  `json:"deductions"`
	Taxes         float64  `json:"taxes"`
	PaymentMethod string   `json:"paymentMethod"`
	Notes         string   `json:"notes"`
	Version       int      `json:"version"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}/payments", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
	})
	r.Route("/payments/{paymentID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Patch("/", h.handleEdit)
		r.Delete("/", h.handleDelete)
		r.Post("/submit", h.handleSubmit)
		r.Post("/approve", h.handleApprove)
		r.Post("/process", h.handleProcess)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	payments, err := h.Service.List(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payment_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
		return
	}
	payments = pagePayments(payments, shared.ParsePagination(r, 100, 500))
	api.Success(w, payments, middleware.GetRequestID(r.Context()))
}

func pagePayments(payments []payment.Payment, page shared.Pagination) []payment.Payment {
	if page.Offset >= len(payments) {
		return []payment.Payment{}
	}
	end := page.Offset + page.Limit
	if end > len(payments) {
		end = len(payments)
	}
	return payments[page.Offset:end]
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.Get(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		h.fail(w, r, err, "payment_get_failed", "failed to load payment")
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), employeeID, input)
	if err != nil {
		h.fail(w, r, err, "payment_create_failed", "failed to create payment")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	updated, err := h.Service.Edit(r.Context(), chi.URLParam(r, "paymentID"), input)
	if err != nil {
		h.fail(w, r, err, "payment_update_failed", "failed to update payment")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "paymentID")); err != nil {
		h.fail(w, r, err, "payment_delete_failed", "failed to delete payment")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Service.Submit(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		h.fail(w, r, err, "payment_submit_failed", "failed to submit payment")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Service.Approve(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		h.fail(w, r, err, "payment_approve_failed", "failed to approve payment")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Service.Process(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		h.fail(w, r, err, "payment_process_failed", "failed to process payment")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (payment.Input, bool) {
	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return payment.Input{}, false
	}

	v := shared.NewValidator()
	v.Required("month", payload.Month, "month is required")
	var date, dueDate time.Time
	if parsed, ok := v.Date("date", payload.Date); ok {
		date = parsed
	}
	if parsed, ok := v.Date("dueDate", payload.DueDate); ok {
		dueDate = parsed
	}
	v.Positive("baseSalary", payload.BaseSalary)
	v.NonNegative("bonus", payload.Bonus)
	v.NonNegative("allowances", payload.Allowances)
	v.NonNegative("deductions", payload.Deductions)
	v.NonNegative("taxes", payload.Taxes)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return payment.Input{}, false
	}

	return payment.Input{
		Month:         payload.Month,
		Date:          date,
		DueDate:       dueDate,
		BaseSalary:    payload.BaseSalary,
		TaskIDs:       payload.TaskIDs,
		Bonus:         payload.Bonus,
		Allowances:    payload.Allowances,
		Deductions:    payload.Deductions,
		Taxes:         payload.Taxes,
		PaymentMethod: payload.PaymentMethod,
		Notes:         payload.Notes,
		Version:       payload.Version,
	}, true
}

// fail maps domain errors onto the response envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		api.Fail(w, http.StatusNotFound, "payment_not_found", "payment not found", requestID)
	case errors.Is(err, task.ErrTaskNotFound):
		api.Fail(w, http.StatusNotFound, "task_not_found", err.Error(), requestID)
	case errors.Is(err, payment.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_payment", err.Error(), requestID)
	case errors.Is(err, payment.ErrStaleVersion):
		api.Fail(w, http.StatusConflict, "stale_version", err.Error(), requestID)
	case errors.Is(err, payment.ErrTaskUnavailable):
		api.Fail(w, http.StatusConflict, "task_unavailable", err.Error(), requestID)
	case errors.Is(err, payment.ErrPaymentPaid), errors.Is(err, payment.ErrNotForward):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
