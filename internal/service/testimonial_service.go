package service

import (
	"context"
	"net/mail"
	"strings"

	"polleria/internal/model"
	"polleria/internal/repository"

	"github.com/rs/zerolog"
)

const (
	featuredMinRating = 3
	featuredCount     = 3
)

type testimonialService struct {
	repo   repository.TestimonialRepository
	logger zerolog.Logger
}

// NewTestimonialService creates the customer review service.
func NewTestimonialService(repo repository.TestimonialRepository, logger zerolog.Logger) TestimonialService {
	return &testimonialService{
		repo:   repo,
		logger: logger.With().Str("service", "testimonial").Logger(),
	}
}

func (s *testimonialService) Create(ctx context.Context, req *model.TestimonialRequest, user *model.User) (*model.Testimonial, error) {
	if err := validateTestimonial(req); err != nil {
		return nil, err
	}

	t := &model.Testimonial{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
		Location: strings.TrimSpace(req.Location),
	}
	if user != nil {
		id := user.ID
		t.UserID = &id
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("testimonial_id", t.ID).Int("rating", t.Rating).Msg("testimonial stored")
	return t, nil
}

func (s *testimonialService) ListFeatured(ctx context.Context) ([]model.Testimonial, error) {
	return s.repo.ListRecent(ctx, featuredMinRating, featuredCount)
}

func validateTestimonial(req *model.TestimonialRequest) error {
	if req == nil {
		return model.InvalidInput("testimonial is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.InvalidInput("name is required")
	}
	if strings.TrimSpace(req.Comment) == "" {
		return model.InvalidInput("comment is required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return model.InvalidInput("rating must be between 1 and 5")
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return model.InvalidInput("email is invalid")
		}
	}
	return nil
}
