package taskhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskpay/internal/domain/task"
	"taskpay/internal/transport/http/api"
	"taskpay/internal/transport/http/middleware"
	"taskpay/internal/transport/http/shared"
)

type Handler struct {
	Service *task.Service
}

func NewHandler(service *task.Service) *Handler {
	return &Handler{Service: service}
}

type taskPayload struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
}

type taskPatchPayload struct {
	Type        *string  `json:"type"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	Hours       *float64 `json:"hours"`
	Rate        *float64 `json:"rate"`
	Version     int      `json:"version"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}/tasks", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleSubmit)
		r.Get("/available", h.handleAvailable)
	})
	r.Route("/tasks/{taskID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Patch("/", h.handleUpdate)
		r.Delete("/", h.handleDelete)
		r.Post("/approve", h.handleApprove)
		r.Post("/reject", h.handleReject)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	query := r.URL.Query()

	v := shared.NewValidator()
	filter := task.Filter{Status: strings.TrimSpace(query.Get("status"))}
	if filter.Status != "" && !task.ValidStatus(filter.Status) {
		v.Add("status", "must be one of pending, approved, rejected, paid")
	}
	if raw := query.Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			filter.From = parsed
		}
	}
	if raw := query.Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			filter.To = parsed
		}
	}
	v.DateOrder("from", filter.From, "to", filter.To)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	tasks, err := h.Service.List(r.Context(), employeeID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "task_list_failed", "failed to list tasks", middleware.GetRequestID(r.Context()))
		return
	}
	tasks = pageTasks(tasks, shared.ParsePagination(r, 100, 500))
	api.Success(w, tasks, middleware.GetRequestID(r.Context()))
}

func pageTasks(tasks []task.Task, page shared.Pagination) []task.Task {
	if page.Offset >= len(tasks) {
		return []task.Task{}
	}
	end := page.Offset + page.Limit
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[page.Offset:end]
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	tasks, err := h.Service.Available(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "task_list_failed", "failed to list available tasks", middleware.GetRequestID(r.Context()))
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	api.Success(w, tasks, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.Get(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		h.fail(w, r, err, "task_get_failed", "failed to load task")
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "type is required")
	date, _ := v.Date("date", payload.Date)
	v.NonNegative("hours", payload.Hours)
	v.NonNegative("rate", payload.Rate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.Submit(r.Context(), employeeID, task.NewTaskInput{
		Type:        payload.Type,
		Description: payload.Description,
		Date:        date,
		Hours:       payload.Hours,
		Rate:        payload.Rate,
	})
	if err != nil {
		h.fail(w, r, err, "task_create_failed", "failed to create task")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload taskPatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	patch := task.UpdateTaskInput{
		Type:        payload.Type,
		Description: payload.Description,
		Hours:       payload.Hours,
		Rate:        payload.Rate,
		Version:     payload.Version,
	}
	if payload.Date != nil {
		if parsed, ok := v.Date("date", *payload.Date); ok {
			patch.Date = &parsed
		}
	}
	if payload.Hours != nil {
		v.NonNegative("hours", *payload.Hours)
	}
	if payload.Rate != nil {
		v.NonNegative("rate", *payload.Rate)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.Update(r.Context(), chi.URLParam(r, "taskID"), patch)
	if err != nil {
		h.fail(w, r, err, "task_update_failed", "failed to update task")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		h.fail(w, r, err, "task_delete_failed", "failed to delete task")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Service.Approve(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		h.fail(w, r, err, "task_approve_failed", "failed to approve task")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Service.Reject(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		h.fail(w, r, err, "task_reject_failed", "failed to reject task")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

// fail maps domain errors onto the response envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		api.Fail(w, http.StatusNotFound, "task_not_found", "task not found", requestID)
	case errors.Is(err, task.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_task", err.Error(), requestID)
	case errors.Is(err, task.ErrStaleVersion):
		api.Fail(w, http.StatusConflict, "stale_version", err.Error(), requestID)
	case errors.Is(err, task.ErrInvalidTransition), errors.Is(err, task.ErrTaskPaid), errors.Is(err, task.ErrTaskLinked):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
