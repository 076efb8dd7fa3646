package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogQuery scopes a listing or count. An empty Brand means every brand,
// a zero Limit means no limit.
type CatalogQuery struct {
	Brand  string
	Limit  int
	Offset int
}

// CatalogReader is the read side of the catalog used by the resolver.
// Entries are always returned in retrieval order (ascending id).
type CatalogReader interface {
	// FindBySubstring returns entries whose name contains text once both sides
	// are reduced with textnorm.Loose.
	FindBySubstring(ctx context.Context, text string) ([]CatalogEntry, error)
	FindAll(ctx context.Context) ([]CatalogEntry, error)
	// FindByExactName compares textnorm.Key of name against each entry's key.
	// Returns nil, nil when nothing matches.
	FindByExactName(ctx context.Context, name string) (*CatalogEntry, error)
	List(ctx context.Context, q CatalogQuery) ([]CatalogEntry, error)
	Count(ctx context.Context, q CatalogQuery) (int, error)
}

// CatalogStore adds the write operations used by the catalog CRUD layer
type CatalogStore interface {
	CatalogReader

	// FindByName looks up an entry by its stored name, byte for byte.
	// Returns nil, nil when absent.
	FindByName(ctx context.Context, name string) (*CatalogEntry, error)
	Create(ctx context.Context, entry *CatalogEntry) error
	CreateMany(ctx context.Context, entries []CatalogEntry) error
	Update(ctx context.Context, entry *CatalogEntry) error
	Delete(ctx context.Context, id int64) error
}

// OrderRepository persists orders
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	// GetByNumber returns nil, nil when the order number is unknown
	GetByNumber(ctx context.Context, number string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	// ListByStatus returns a newest-first page plus the total count for status
	ListByStatus(ctx context.Context, status OrderStatus, limit, offset int) ([]Order, int, error)
}

// OrderNotifier fans order events out to realtime subscribers
type OrderNotifier interface {
	Publish(event OrderEvent)
}
