package perimeter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultSignatures is the built-in deny list used when no signature files
// are configured. Entries are lowercase user agent fragments.
var DefaultSignatures = []string{
	"sqlmap",
	"nikto",
	"nmap",
	"masscan",
	"zgrab",
	"python-requests",
	"go-http-client",
	"curl/",
	"wget/",
	"scrapy",
	"headlesschrome",
	"phantomjs",
}

// Catalog is a read-only collection of signature sets.
type Catalog struct {
	sets []SignatureSet
}

// NewCatalog creates a catalog from already loaded sets.
func NewCatalog(sets ...SignatureSet) *Catalog {
	return &Catalog{sets: sets}
}

// LoadCatalog loads every path concurrently with loader. Any failure aborts the
// whole load. With no paths the catalog holds DefaultSignatures.
func LoadCatalog(ctx context.Context, loader Loader, paths []string, logger zerolog.Logger) (*Catalog, error) {
	logger = logger.With().Str("component", "signature-catalog").Logger()

	if len(paths) == 0 {
		logger.Info().Int("signatures", len(DefaultSignatures)).Msg("using built-in signature list")
		return NewCatalog(NewSignatureSet(DefaultSignatures...)), nil
	}

	sets := make([]SignatureSet, len(paths))
	g, gctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		g.Go(func() error {
			set, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load signature file %s: %w", path, err)
			}
			sets[i] = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to load signature catalog")
		return nil, err
	}

	c := NewCatalog(sets...)
	logger.Info().
		Int("file_count", len(paths)).
		Int("total_signatures", c.Size()).
		Msg("signature catalog loaded")

	return c, nil
}

// Match returns the first signature in any set contained in ua.
func (c *Catalog) Match(ua string) (string, bool) {
	for _, s := range c.sets {
		if sig, ok := s.Match(ua); ok {
			return sig, true
		}
	}
	return "", false
}

// Size returns the total number of signatures across all sets.
func (c *Catalog) Size() int {
	total := 0
	for _, s := range c.sets {
		total += s.Size()
	}
	return total
}
