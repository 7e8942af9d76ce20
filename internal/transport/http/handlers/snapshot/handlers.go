package snapshothandler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskpay/internal/domain/snapshot"
	"taskpay/internal/transport/http/api"
	"taskpay/internal/transport/http/middleware"
)

type Handler struct {
	Service *snapshot.Service
}

func NewHandler(service *snapshot.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}/snapshot", func(r chi.Router) {
		r.Get("/", h.handleExport)
		r.Post("/", h.handleImport)
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	data, err := h.Service.Export(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "snapshot_export_failed", "failed to export snapshot", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="snapshot-`+employeeID+`.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.Import(r.Context(), employeeID, data)
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrLinkMismatch):
			api.Fail(w, http.StatusConflict, "snapshot_link_mismatch", err.Error(), middleware.GetRequestID(r.Context()))
		case errors.Is(err, snapshot.ErrCorruptSnapshot):
			api.Fail(w, http.StatusBadRequest, "snapshot_corrupt", err.Error(), middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "snapshot_import_failed", "failed to import snapshot", middleware.GetRequestID(r.Context()))
		}
		return
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}
