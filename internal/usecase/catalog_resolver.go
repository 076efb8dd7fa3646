package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/infrastructure/metrics"
	"github.com/cleservice/backend/internal/textnorm"
)

// Listing defaults
const (
	defaultListLimit = 10
	maxListLimit     = 100
	defaultCacheTTL  = 5 * time.Second
)

// ResolverConfig holds configuration for the catalog resolver
type ResolverConfig struct {
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// CatalogResolver answers name lookups and listings over the catalog.
// It never writes to the store; the cache is optional and only fronts listings.
type CatalogResolver struct {
	store              domain.CatalogReader
	cache              domain.CacheRepository
	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewCatalogResolver creates a resolver over store. cache may be nil.
func NewCatalogResolver(store domain.CatalogReader, cache domain.CacheRepository, config ResolverConfig) *CatalogResolver {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &CatalogResolver{
		store:              store,
		cache:              cache,
		cacheTTL:           cacheTTL,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// GetExact returns the entry whose name equals query once both are reduced to
// their comparison key. It does not fall back to fuzzy matching.
func (r *CatalogResolver) GetExact(ctx context.Context, query string) (*domain.CatalogEntry, error) {
	entry, err := r.store.FindByExactName(ctx, query)
	if err != nil {
		metrics.ResolverLookups.WithLabelValues("exact", metrics.ResultError).Inc()
		return nil, err
	}
	if entry == nil {
		metrics.ResolverLookups.WithLabelValues("exact", metrics.ResultNotFound).Inc()
		return nil, fmt.Errorf("%w: no entry named %q", domain.ErrKeyNotFound, query)
	}

	metrics.ResolverLookups.WithLabelValues("exact", metrics.ResultFound).Inc()
	return entry, nil
}

// FindBestMatch returns the closest entry to query by edit distance.
func (r *CatalogResolver) FindBestMatch(ctx context.Context, query string) (*domain.CatalogEntry, error) {
	ranked, err := r.RankMatches(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: no match for %q", domain.ErrKeyNotFound, query)
	}

	best := ranked[0].Entry
	if r.enableDebugLogging {
		log.Printf("[RESOLVER] Best match for %q: %q (distance %d)", query, best.Name, ranked[0].Distance)
	}
	return &best, nil
}

// FindTopMatches returns at most limit entries ordered by ascending edit distance to query.
func (r *CatalogResolver) FindTopMatches(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	ranked, err := r.RankMatches(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.CatalogEntry, len(ranked))
	for i, c := range ranked {
		entries[i] = c.Entry
	}
	return entries, nil
}

// RankMatches is FindTopMatches with the distances kept.
//
// Candidates are the entries whose loose name contains the loose query. When
// none do, the whole catalog is ranked instead, and an empty catalog yields
// ErrKeyNotFound. Ties keep retrieval order.
func (r *CatalogResolver) RankMatches(ctx context.Context, query string, limit int) ([]domain.MatchCandidate, error) {
	candidates, err := r.fetchCandidates(ctx, query)
	if err != nil {
		metrics.ResolverLookups.WithLabelValues("fuzzy", lookupResult(err)).Inc()
		return nil, err
	}

	target := textnorm.Key(query)
	ranked := make([]domain.MatchCandidate, 0, len(candidates))
	for _, entry := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		distance := textnorm.Distance(target, textnorm.Key(entry.Name))
		if r.enableDebugLogging {
			log.Printf("[RESOLVER] Candidate %q | distance %d", entry.Name, distance)
		}
		ranked = append(ranked, domain.MatchCandidate{Entry: entry, Distance: distance})
	}

	slices.SortStableFunc(ranked, func(a, b domain.MatchCandidate) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	limit = max(limit, 0)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	metrics.ResolverLookups.WithLabelValues("fuzzy", metrics.ResultFound).Inc()
	return ranked, nil
}

// fetchCandidates applies the substring pre-filter and falls back to a full scan
func (r *CatalogResolver) fetchCandidates(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	text := strings.TrimSpace(query)

	candidates, err := r.store.FindBySubstring(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		metrics.ResolverCandidateTier.WithLabelValues(metrics.TierSubstring).Inc()
		if r.enableDebugLogging {
			log.Printf("[RESOLVER] %d substring candidates for %q", len(candidates), text)
		}
		return candidates, nil
	}

	if r.enableDebugLogging {
		log.Printf("[RESOLVER] No substring candidates for %q, ranking full catalog", text)
	}

	candidates, err = r.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no catalog entries available", domain.ErrKeyNotFound)
	}

	metrics.ResolverCandidateTier.WithLabelValues(metrics.TierFullScan).Inc()
	return candidates, nil
}

// ListByBrand returns every entry of brand in retrieval order
func (r *CatalogResolver) ListByBrand(ctx context.Context, brand string) ([]domain.CatalogEntry, error) {
	key := "catalog:brand:" + brandKey(brand)
	entries, err := cacheAside(ctx, r, key, func(ctx context.Context) ([]domain.CatalogEntry, error) {
		return r.store.List(ctx, domain.CatalogQuery{Brand: brand})
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(entries), nil
}

// ListAll returns one page of the catalog. A non-positive limit means 10 and
// limits above 100 are clamped; a negative skip is treated as 0.
func (r *CatalogResolver) ListAll(ctx context.Context, limit, skip int) ([]domain.CatalogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	skip = max(skip, 0)

	key := fmt.Sprintf("catalog:all:%d:%d", limit, skip)
	entries, err := cacheAside(ctx, r, key, func(ctx context.Context) ([]domain.CatalogEntry, error) {
		return r.store.List(ctx, domain.CatalogQuery{Limit: limit, Offset: skip})
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(entries), nil
}

// Count returns the number of catalog entries
func (r *CatalogResolver) Count(ctx context.Context) (int, error) {
	return cacheAside(ctx, r, "catalog:count", func(ctx context.Context) (int, error) {
		return r.store.Count(ctx, domain.CatalogQuery{})
	})
}

// CountByBrand returns the number of entries of brand
func (r *CatalogResolver) CountByBrand(ctx context.Context, brand string) (int, error) {
	key := "catalog:count:" + brandKey(brand)
	return cacheAside(ctx, r, key, func(ctx context.Context) (int, error) {
		return r.store.Count(ctx, domain.CatalogQuery{Brand: brand})
	})
}

// GetByIndex returns the entry at zero-based position index in retrieval order
func (r *CatalogResolver) GetByIndex(ctx context.Context, index int) (*domain.CatalogEntry, error) {
	return r.entryAt(ctx, "", index)
}

// GetByBrandAndIndex returns the entry at zero-based position index within brand
func (r *CatalogResolver) GetByBrandAndIndex(ctx context.Context, brand string, index int) (*domain.CatalogEntry, error) {
	return r.entryAt(ctx, brand, index)
}

func (r *CatalogResolver) entryAt(ctx context.Context, brand string, index int) (*domain.CatalogEntry, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: index must be >= 0, got %d", domain.ErrInvalidRequest, index)
	}

	key := fmt.Sprintf("catalog:index:%s:%d", brandKey(brand), index)
	entries, err := cacheAside(ctx, r, key, func(ctx context.Context) ([]domain.CatalogEntry, error) {
		return r.store.List(ctx, domain.CatalogQuery{Brand: brand, Limit: 1, Offset: index})
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entry at index %d", domain.ErrKeyNotFound, index)
	}

	entry := entries[0]
	return &entry, nil
}

// cacheAside returns the cached value under key, or loads, stores and returns it.
// Cache failures never fail the call.
func cacheAside[T any](ctx context.Context, r *CatalogResolver, key string, load func(context.Context) (T, error)) (T, error) {
	if r.cache != nil {
		if value, err := r.cache.Get(ctx, key); err == nil {
			if typed, ok := value.(T); ok {
				metrics.CatalogCacheRequests.WithLabelValues("hit").Inc()
				return typed, nil
			}
		}
		metrics.CatalogCacheRequests.WithLabelValues("miss").Inc()
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, value, r.cacheTTL); err != nil {
			log.Printf("[RESOLVER] Cache set failed for %q: %v", key, err)
		}
	}
	return value, nil
}

// brandKey folds a brand name for use in cache keys; stores compare brands case-insensitively
func brandKey(brand string) string {
	return strings.ToLower(strings.TrimSpace(brand))
}

func lookupResult(err error) string {
	if err == nil {
		return metrics.ResultFound
	}
	if errors.Is(err, domain.ErrKeyNotFound) {
		return metrics.ResultNotFound
	}
	return metrics.ResultError
}
