package repository

import (
	"context"

	"github.com/Vishal2827/pern-stack/internal/model"
)

// ProductRepository defines the interface for product data access operations.
// Every method issues exactly one SQL statement. Methods that address a single
// row return model.ErrProductNotFound when no row matches.
type ProductRepository interface {
	// List retrieves all products, newest first.
	List(ctx context.Context) ([]model.Product, error)

	// Create inserts a product and returns the stored row.
	Create(ctx context.Context, in model.ProductInput) (*model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Update replaces name, price and image of a product and returns the stored row.
	Update(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error)

	// Delete removes a product and returns the row as it was before deletion.
	Delete(ctx context.Context, id int64) (*model.Product, error)
}
