package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vishal2827/pern-stack/internal/model"
	"github.com/Vishal2827/pern-stack/internal/repository"

	"github.com/rs/zerolog"
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

// List retrieves all products, newest first.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().Int("count", len(products)).Msg("listed products")

	return products, nil
}

// Create validates and stores a new product.
func (s *productService) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if !in.Complete() {
		s.logger.Debug().Msg("create rejected: missing fields")
		return nil, model.ErrMissingField
	}

	product, err := s.productRepo.Create(ctx, in)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Int64("product_id", product.ID).Msg("product created")

	return product, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.classify(err, id, "get")
	}

	return product, nil
}

// Update validates and replaces an existing product.
func (s *productService) Update(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	if !in.Complete() {
		s.logger.Debug().Int64("product_id", id).Msg("update rejected: missing fields")
		return nil, model.ErrMissingField
	}

	product, err := s.productRepo.Update(ctx, id, in)
	if err != nil {
		return nil, s.classify(err, id, "update")
	}

	s.logger.Info().Int64("product_id", id).Msg("product updated")

	return product, nil
}

// Delete removes a product and returns what was removed.
func (s *productService) Delete(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return nil, s.classify(err, id, "delete")
	}

	s.logger.Info().Int64("product_id", id).Msg("product deleted")

	return product, nil
}

// classify passes not-found through untouched and wraps everything else.
func (s *productService) classify(err error, id int64, op string) error {
	if errors.Is(err, model.ErrProductNotFound) {
		s.logger.Debug().Int64("product_id", id).Str("op", op).Msg("product not found")
		return model.ErrProductNotFound
	}
	s.logger.Error().Err(err).Int64("product_id", id).Str("op", op).Msg("product operation failed")
	return fmt.Errorf("failed to %s product: %w", op, err)
}
