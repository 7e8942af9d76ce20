package ledgerhandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taskpay/internal/domain/ledger"
	"taskpay/internal/transport/http/api"
	"taskpay/internal/transport/http/middleware"
	"taskpay/internal/transport/http/shared"
)

type Handler struct {
	Service *ledger.Service
}

func NewHandler(service *ledger.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}", func(r chi.Router) {
		r.Get("/ledger", h.handleStatement)
		r.Get("/balance", h.handleBalance)
		r.Get("/reporting-window", h.handleGetWindow)
		r.Put("/reporting-window", h.handleSetWindow)
	})
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	query := r.URL.Query()

	v := shared.NewValidator()
	var window ledger.Window
	if raw := query.Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			window.From = parsed
		}
	}
	if raw := query.Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			window.To = parsed
		}
	}
	v.DateOrder("from", window.From, "to", window.To)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	stmt, err := h.Service.Statement(r.Context(), employeeID, window)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ledger_failed", "failed to build ledger statement", middleware.GetRequestID(r.Context()))
		return
	}
	if stmt.Entries == nil {
		stmt.Entries = []ledger.AccountEntry{}
	}
	api.Success(w, stmt, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	window := h.Service.ActiveWindow(employeeID, time.Now())
	api.Success(w, window, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var payload struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	var window ledger.Window
	if parsed, ok := v.Date("from", payload.From); ok {
		window.From = parsed
	}
	if parsed, ok := v.Date("to", payload.To); ok {
		window.To = parsed
	}
	v.DateOrder("from", window.From, "to", window.To)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	h.Service.SetWindow(employeeID, window)
	api.Success(w, window, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	balance, err := h.Service.Balance(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balance_failed", "failed to compute balance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"employeeId": employeeID,
		"balance":    balance,
		"settled":    ledger.Settled(balance),
	}, middleware.GetRequestID(r.Context()))
}
