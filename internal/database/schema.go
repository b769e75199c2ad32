package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Schema creates the products table when it does not exist yet.
const Schema = `
	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		image VARCHAR(255) NOT NULL,
		price DECIMAL(10, 2) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// EnsureSchema runs the idempotent table creation statement.
func EnsureSchema(ctx context.Context, db Execer, logger zerolog.Logger) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		logger.Error().Err(err).Msg("failed to initialise database schema")
		return fmt.Errorf("failed to initialise database schema: %w", err)
	}

	logger.Info().Msg("database initialised successfully")

	return nil
}
