// Package catalog caches the service's enumeration of selectable options.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/events"
)

// Fetcher retrieves the catalog from the service.
type Fetcher interface {
	FetchCatalog(ctx context.Context) (*domain.CatalogParameters, error)
}

// Cache fetches the catalog lazily on first use and keeps it for the rest of
// the session. A failed fetch is not cached; the next Get tries again.
type Cache struct {
	fetcher Fetcher
	events  *events.Manager
	log     zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	catalog *domain.CatalogParameters
}

// NewCache creates an empty cache. eventManager may be nil.
func NewCache(fetcher Fetcher, eventManager *events.Manager, log zerolog.Logger) *Cache {
	return &Cache{
		fetcher: fetcher,
		events:  eventManager,
		log:     log.With().Str("component", "catalog_cache").Logger(),
	}
}

// Get returns the catalog, fetching it if this is the first successful call.
// Concurrent callers share one fetch.
func (c *Cache) Get(ctx context.Context) (*domain.CatalogParameters, error) {
	if catalog := c.Snapshot(); catalog != nil {
		return catalog, nil
	}

	v, err, shared := c.group.Do("catalog", func() (interface{}, error) {
		if catalog := c.Snapshot(); catalog != nil {
			return catalog, nil
		}

		catalog, err := c.fetcher.FetchCatalog(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.catalog = catalog
		c.mu.Unlock()

		c.log.Info().
			Int("optimizers", len(catalog.Optimizers)).
			Int("domicile_countries", len(catalog.DomicileCountries)).
			Int("fund_currencies", len(catalog.FundCurrencies)).
			Msg("Catalog loaded")
		if c.events != nil {
			c.events.EmitTyped(events.CatalogLoaded, "catalog", &events.CatalogLoadedData{
				Optimizers:           len(catalog.Optimizers),
				DomicileCountries:    len(catalog.DomicileCountries),
				ReplicationMethods:   len(catalog.ReplicationMethods),
				DistributionPolicies: len(catalog.DistributionPolicies),
				FundCurrencies:       len(catalog.FundCurrencies),
			})
		}
		return catalog, nil
	})
	if err != nil {
		if !shared && c.events != nil {
			c.events.EmitDiagnostic("catalog", "", err)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCatalogUnavailable, err)
	}
	return v.(*domain.CatalogParameters), nil
}

// Snapshot returns the cached catalog without fetching, nil if not loaded yet.
func (c *Cache) Snapshot() *domain.CatalogParameters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog
}

// DisplayLabel renders a catalog option for display. Some option names
// carry HTML line breaks.
func DisplayLabel(option string) string {
	return strings.ReplaceAll(option, "<br />", " ")
}
