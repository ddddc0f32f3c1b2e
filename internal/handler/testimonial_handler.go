package handler

import (
	"net/http"

	"polleria/internal/middleware"
	"polleria/internal/model"
	"polleria/internal/service"

	"github.com/rs/zerolog"
)

// TestimonialHandler serves customer reviews.
type TestimonialHandler struct {
	service service.TestimonialService
	logger  zerolog.Logger
}

// NewTestimonialHandler creates a new testimonial handler.
func NewTestimonialHandler(service service.TestimonialService, logger zerolog.Logger) *TestimonialHandler {
	return &TestimonialHandler{
		service: service,
		logger:  logger.With().Str("handler", "testimonial").Logger(),
	}
}

// List handles GET /api/testimonials requests.
func (h *TestimonialHandler) List(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.service.ListFeatured(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(testimonials))
}

// Create handles POST /api/testimonials. A token is optional.
func (h *TestimonialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TestimonialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	testimonial, err := h.service.Create(r.Context(), &req, middleware.UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, testimonial)
}
