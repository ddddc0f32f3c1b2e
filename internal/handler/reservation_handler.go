package handler

import (
	"net/http"

	"polleria/internal/middleware"
	"polleria/internal/model"
	"polleria/internal/service"

	"github.com/rs/zerolog"
)

// ReservationHandler handles table booking requests.
type ReservationHandler struct {
	service service.ReservationService
	logger  zerolog.Logger
}

// NewReservationHandler creates a new reservation handler.
func NewReservationHandler(service service.ReservationService, logger zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		logger:  logger.With().Str("handler", "reservation").Logger(),
	}
}

// Create handles POST /api/reservations requests.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ReservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	reservation, err := h.service.Create(r.Context(), &req, middleware.UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

// GetByID handles GET /api/reservations/{id} for the owner or staff.
func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	reservation, err := h.service.GetByID(r.Context(), id, middleware.UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// Mine handles GET /api/reservations/my-reservations requests.
func (h *ReservationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeDomainError(w, model.ErrUnauthorised, h.logger)
		return
	}

	reservations, err := h.service.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(reservations))
}

// All handles GET /api/reservations requests.
func (h *ReservationHandler) All(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	reservations, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(reservations))
}

// UpdateStatus handles PATCH /api/reservations/{id}/status requests.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.UpdateStatus(r.Context(), id, model.ReservationStatus(req.Status)); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Message: "Estado actualizado", ID: id, Status: req.Status})
}
