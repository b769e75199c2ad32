package service

import (
	"context"

	"github.com/Vishal2827/pern-stack/internal/model"
)

// ProductService defines operations for product management.
//
// Validation failures are returned as model.ErrMissingField and missing rows as
// model.ErrProductNotFound; any other error is an internal failure.
type ProductService interface {
	// List retrieves all products, newest first.
	List(ctx context.Context) ([]model.Product, error)

	// Create validates and stores a new product.
	Create(ctx context.Context, in model.ProductInput) (*model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Update validates and replaces an existing product.
	Update(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error)

	// Delete removes a product and returns what was removed.
	Delete(ctx context.Context, id int64) (*model.Product, error)
}
