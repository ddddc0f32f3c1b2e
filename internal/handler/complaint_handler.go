package handler

import (
	"net/http"

	"polleria/internal/model"
	"polleria/internal/service"

	"github.com/rs/zerolog"
)

// ComplaintHandler handles the complaints book.
type ComplaintHandler struct {
	service service.ComplaintService
	logger  zerolog.Logger
}

// NewComplaintHandler creates a new complaint handler.
func NewComplaintHandler(service service.ComplaintService, logger zerolog.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		service: service,
		logger:  logger.With().Str("handler", "complaint").Logger(),
	}
}

// Create handles POST /api/complaints requests.
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ComplaintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	complaint, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, complaint)
}

// All handles GET /api/complaints requests.
func (h *ComplaintHandler) All(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	complaints, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(complaints))
}

// GetByID handles GET /api/complaints/{id} requests.
func (h *ComplaintHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	complaint, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, complaint)
}

// UpdateStatus handles PATCH /api/complaints/{id}/status requests.
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req model.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, model.ComplaintStatus(req.Status)); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Message: "Estado actualizado", ID: id, Status: req.Status})
}
