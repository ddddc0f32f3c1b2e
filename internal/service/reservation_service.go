package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"polleria/internal/config"
	"polleria/internal/events"
	"polleria/internal/model"
	"polleria/internal/repository"

	"github.com/rs/zerolog"
)

// window is an inclusive opening range in minutes since midnight.
type window struct {
	open, close int
}

var openingHours = map[time.Weekday]window{
	time.Sunday:    {open: 12 * 60, close: 22 * 60},
	time.Monday:    {open: 11 * 60, close: 22 * 60},
	time.Tuesday:   {open: 11 * 60, close: 22 * 60},
	time.Wednesday: {open: 11 * 60, close: 22 * 60},
	time.Thursday:  {open: 11 * 60, close: 22 * 60},
	time.Friday:    {open: 11 * 60, close: 23 * 60},
	time.Saturday:  {open: 11 * 60, close: 23 * 60},
}

type reservationService struct {
	repo      repository.ReservationRepository
	publisher events.Publisher
	loc       *time.Location
	logger    zerolog.Logger
}

// NewReservationService creates a reservation service. Opening hours are
// evaluated in cfg.Timezone.
func NewReservationService(repo repository.ReservationRepository, publisher events.Publisher, cfg config.ReservationConfig, logger zerolog.Logger) (ReservationService, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation timezone: %w", err)
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &reservationService{
		repo:      repo,
		publisher: publisher,
		loc:       loc,
		logger:    logger.With().Str("service", "reservation").Logger(),
	}, nil
}

func (s *reservationService) Create(ctx context.Context, req *model.ReservationRequest, user *model.User) (*model.Reservation, error) {
	if err := validateReservation(req); err != nil {
		return nil, err
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, s.loc)
	if err != nil {
		return nil, model.InvalidInput("invalid date or time")
	}
	if !WithinOpeningHours(at) {
		s.logger.Debug().Str("date", req.Date).Str("time", req.Time).Msg("reservation outside opening hours")
		return nil, model.ErrOutsideOpeningHours
	}

	res := &model.Reservation{
		CustomerName:  strings.TrimSpace(req.Customer.Name),
		CustomerEmail: strings.TrimSpace(req.Customer.Email),
		CustomerPhone: strings.TrimSpace(req.Customer.Phone),
		People:        req.People,
		Date:          req.Date,
		Time:          req.Time,
		Status:        model.ReservationStatusPending,
		AdvancePaid:   true,
	}
	if user != nil {
		id := user.ID
		res.UserID = &id
	}

	if err := s.repo.Create(ctx, res); err != nil {
		s.logger.Error().Err(err).Msg("failed to create reservation")
		return nil, err
	}

	s.logger.Info().Int64("reservation_id", res.ID).Str("date", res.Date).Msg("reservation created")

	publish(ctx, s.publisher, s.logger, events.NewNotificationEvent(events.NewNotification{
		EntityID:     res.ID,
		EntityType:   events.EntityTypeReservation,
		Type:         events.NotificationReservation,
		Title:        fmt.Sprintf("Nueva Reserva #%d", res.ID),
		Message:      fmt.Sprintf("%d personas para el %s a las %s", res.People, res.Date, res.Time),
		CustomerName: res.CustomerName,
		Status:       string(res.Status),
	}))

	return res, nil
}

func (s *reservationService) GetByID(ctx context.Context, id int64, user *model.User) (*model.Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(user, res.UserID) {
		s.logger.Warn().Int64("reservation_id", id).Msg("reservation read denied")
		return nil, model.ErrForbidden
	}
	return res, nil
}

func (s *reservationService) ListForUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *reservationService) ListAll(ctx context.Context, limit, offset int) ([]model.Reservation, error) {
	limit, offset = normalisePage(limit, offset)
	return s.repo.ListAll(ctx, limit, offset)
}

func (s *reservationService) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	if !status.Valid() {
		return model.ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.StatusUpdateEvent(events.EntityTypeReservation, id, string(status)))
	return nil
}

// WithinOpeningHours reports whether t, in its own location, falls inside
// the opening hours of its weekday. Both ends are inclusive.
func WithinOpeningHours(t time.Time) bool {
	w := openingHours[t.Weekday()]
	m := t.Hour()*60 + t.Minute()
	return m >= w.open && m <= w.close
}

func validateReservation(req *model.ReservationRequest) error {
	if req == nil {
		return model.InvalidInput("reservation request is required")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return model.InvalidInput("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return model.InvalidInput("time must be HH:MM")
	}
	if req.People < 1 {
		return model.InvalidInput("people must be at least 1")
	}
	c := req.Customer
	if c == nil || strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Phone) == "" || strings.TrimSpace(c.Email) == "" {
		return model.InvalidInput("customer name, email and phone are required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		return model.InvalidInput("customer email is invalid")
	}
	return nil
}
