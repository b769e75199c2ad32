package perimeter

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped signature lists on disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based signature loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "signature-loader").Logger(),
	}
}

// Load reads a gzipped signature list from the local file system.
func (l *fileLoader) Load(ctx context.Context, path string) (SignatureSet, error) {
	l.logger.Info().Str("file", path).Msg("loading signature file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open signature file")
		return nil, fmt.Errorf("failed to open signature file %s: %w", path, err)
	}
	defer file.Close()

	set, err := readSignatures(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read signature file")
		return nil, fmt.Errorf("signature file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("signatures_loaded", set.Size()).
		Msg("signature file loaded")

	return set, nil
}
