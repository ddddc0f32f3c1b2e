package router

import (
	"net/http"

	"polleria/internal/handler"
	"polleria/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health       *handler.HealthHandler
	Product      *handler.ProductHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Reservation  *handler.ReservationHandler
	Complaint    *handler.ComplaintHandler
	Testimonial  *handler.TestimonialHandler
	Notification http.Handler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth *middleware.Authenticator, allowedOrigins []string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied in order: Recovery -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/health", h.Health.Check)
	r.Get("/ws", h.Notification.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.GetAll)
			r.Get("/public", h.Product.Public)
			r.Get("/categories", h.Product.Categories)
			r.Get("/{id}", h.Product.GetByID)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth, middleware.RequireStaff)
				r.Post("/", h.Product.Create)
				r.Put("/{id}", h.Product.Update)
				r.Delete("/{id}", h.Product.Delete)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/", h.Order.Create)
			r.Get("/my-orders", h.Order.MyOrders)
			r.With(middleware.RequireStaff).Get("/all", h.Order.All)
			r.Get("/{id}", h.Order.GetByID)
			r.With(middleware.RequireStaff).Patch("/{id}/status", h.Order.UpdateStatus)
		})

		r.Route("/payment", func(r chi.Router) {
			r.With(auth.RequireAuth).Post("/create-preference", h.Payment.CreatePreference)
			r.Post("/webhook", h.Payment.Webhook)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.With(auth.OptionalAuth).Post("/", h.Reservation.Create)
			r.With(auth.RequireAuth).Get("/my-reservations", h.Reservation.Mine)
			r.With(auth.RequireAuth).Get("/{id}", h.Reservation.GetByID)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth, middleware.RequireStaff)
				r.Get("/", h.Reservation.All)
				r.Patch("/{id}/status", h.Reservation.UpdateStatus)
			})
		})

		r.Route("/complaints", func(r chi.Router) {
			r.Post("/", h.Complaint.Create)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth, middleware.RequireStaff)
				r.Get("/", h.Complaint.All)
				r.Get("/{id}", h.Complaint.GetByID)
				r.Patch("/{id}/status", h.Complaint.UpdateStatus)
			})
		})

		r.Route("/testimonials", func(r chi.Router) {
			r.Get("/", h.Testimonial.List)
			r.With(auth.OptionalAuth).Post("/", h.Testimonial.Create)
		})
	})

	return r
}
