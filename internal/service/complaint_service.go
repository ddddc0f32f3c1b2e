package service

import (
	"context"
	"fmt"
	"strings"

	"polleria/internal/events"
	"polleria/internal/model"
	"polleria/internal/repository"

	"github.com/rs/zerolog"
)

type complaintService struct {
	repo      repository.ComplaintRepository
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewComplaintService creates the complaints book service.
func NewComplaintService(repo repository.ComplaintRepository, publisher events.Publisher, logger zerolog.Logger) ComplaintService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &complaintService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("service", "complaint").Logger(),
	}
}

func (s *complaintService) Create(ctx context.Context, req *model.ComplaintRequest) (*model.Complaint, error) {
	if err := validateComplaint(req); err != nil {
		return nil, err
	}

	c := &model.Complaint{
		ConsumerName:           strings.TrimSpace(req.ConsumerName),
		ConsumerLastname:       strings.TrimSpace(req.ConsumerLastname),
		ConsumerDocumentType:   strings.TrimSpace(req.ConsumerDocumentType),
		ConsumerDocumentNumber: strings.TrimSpace(req.ConsumerDocumentNumber),
		ConsumerPhone:          strings.TrimSpace(req.ConsumerPhone),
		ConsumerEmail:          strings.TrimSpace(req.ConsumerEmail),
		ConsumerAddress:        strings.TrimSpace(req.ConsumerAddress),
		ConsumerIsMinor:        req.ConsumerIsMinor,
		ItemType:               req.ItemType,
		ItemAmount:             req.ItemAmount.Value,
		ItemDescription:        req.ItemDescription,
		ComplaintType:          req.ComplaintType,
		ComplaintDetails:       strings.TrimSpace(req.ComplaintDetails),
		ConsumerRequest:        strings.TrimSpace(req.ConsumerRequest),
		Status:                 model.ComplaintStatusPending,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error().Err(err).Msg("failed to create complaint")
		return nil, err
	}

	s.logger.Info().Int64("complaint_id", c.ID).Str("type", c.ComplaintType).Msg("complaint registered")

	publish(ctx, s.publisher, s.logger, events.NewNotificationEvent(events.NewNotification{
		EntityID:     c.ID,
		EntityType:   events.EntityTypeComplaint,
		Type:         events.NotificationComplaint,
		Title:        fmt.Sprintf("Nuevo Reclamo #%d", c.ID),
		Message:      c.ComplaintDetails,
		CustomerName: strings.TrimSpace(c.ConsumerName + " " + c.ConsumerLastname),
		Status:       string(c.Status),
	}))

	return c, nil
}

func (s *complaintService) GetByID(ctx context.Context, id int64) (*model.Complaint, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *complaintService) ListAll(ctx context.Context, limit, offset int) ([]model.Complaint, error) {
	limit, offset = normalisePage(limit, offset)
	return s.repo.ListAll(ctx, limit, offset)
}

func (s *complaintService) UpdateStatus(ctx context.Context, id int64, status model.ComplaintStatus) error {
	if !status.Valid() {
		return model.ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.StatusUpdateEvent(events.EntityTypeComplaint, id, string(status)))
	return nil
}

func validateComplaint(req *model.ComplaintRequest) error {
	if req == nil {
		return model.InvalidInput("complaint is required")
	}

	required := []struct {
		value, field string
	}{
		{req.ConsumerName, "consumer_name"},
		{req.ConsumerLastname, "consumer_lastname"},
		{req.ConsumerDocumentType, "consumer_document_type"},
		{req.ConsumerDocumentNumber, "consumer_document_number"},
		{req.ConsumerPhone, "consumer_phone"},
		{req.ConsumerEmail, "consumer_email"},
		{req.ConsumerAddress, "consumer_address"},
		{req.ComplaintDetails, "complaint_details"},
		{req.ConsumerRequest, "consumer_request"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.InvalidInput(r.field + " is required")
		}
	}

	if req.ItemAmount.Value != nil && req.ItemAmount.Value.IsNegative() {
		return model.InvalidInput("item_amount cannot be negative")
	}

	return nil
}
