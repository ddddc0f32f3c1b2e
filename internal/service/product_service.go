package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"polleria/internal/model"
	"polleria/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = normalisePage(limit, offset)

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		s.logger.Warn().Int64("product_id", id).Msg("invalid product ID")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			s.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, err
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// ListAvailable retrieves the products currently offered to customers.
func (s *productService) ListAvailable(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = normalisePage(limit, offset)

	products, err := s.productRepo.ListAvailable(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list available products")
		return nil, fmt.Errorf("failed to get available products: %w", err)
	}
	return products, nil
}

// Categories lists the distinct menu categories.
func (s *productService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// Create adds a menu item. Items are available unless stated otherwise.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	p := &model.Product{Available: true}
	applyProductRequest(p, req)

	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("product created")
	return p, nil
}

// Update edits a menu item. An empty image or a missing availability flag
// keeps the stored value.
func (s *productService) Update(ctx context.Context, id int64, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductRequest(p, req)

	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("product_id", p.ID).Msg("product updated")
	return p, nil
}

// Delete removes a menu item that was never ordered.
func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

func validateProductRequest(req *model.ProductRequest) error {
	if req == nil {
		return model.InvalidInput("product is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.InvalidInput("name is required")
	}
	if req.Price == nil {
		return model.InvalidInput("price is required")
	}
	if req.Price.IsNegative() {
		return model.InvalidInput("price cannot be negative")
	}
	return nil
}

func applyProductRequest(p *model.Product, req *model.ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = strings.TrimSpace(req.Description)
	p.Price = req.Price.Round(2)
	p.Category = strings.TrimSpace(req.Category)
	if img := strings.TrimSpace(req.Image); img != "" {
		p.Image = img
	}
	if req.Available != nil {
		p.Available = *req.Available
	}
}

// normalisePage clamps pagination parameters shared by every listing.
func normalisePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
