package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cleservice/backend/internal/domain"
)

// CatalogService handles catalog writes. Listings served through the
// resolver cache may lag these writes by up to the cache TTL.
type CatalogService struct {
	store              domain.CatalogStore
	enableDebugLogging bool
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store domain.CatalogStore, enableDebugLogging bool) *CatalogService {
	return &CatalogService{
		store:              store,
		enableDebugLogging: enableDebugLogging,
	}
}

// AddKey validates entry, fills defaults and stores it.
// Returns ErrDuplicateKey when the name is already taken.
func (s *CatalogService) AddKey(ctx context.Context, entry domain.CatalogEntry) (*domain.CatalogEntry, error) {
	if err := prepareEntry(&entry); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByName(ctx, entry.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateKey, entry.Name)
	}

	if err := s.store.Create(ctx, &entry); err != nil {
		return nil, err
	}

	log.Printf("[CATALOG] Added key %q (brand %q)", entry.Name, entry.Brand)
	return &entry, nil
}

// AddKeys stores every entry or none of them
func (s *CatalogService) AddKeys(ctx context.Context, entries []domain.CatalogEntry) ([]domain.CatalogEntry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no keys to add", domain.ErrInvalidRequest)
	}

	prepared := make([]domain.CatalogEntry, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		if err := prepareEntry(&entry); err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("%w: %q appears twice in the batch", domain.ErrDuplicateKey, entry.Name)
		}
		seen[entry.Name] = true

		existing, err := s.store.FindByName(ctx, entry.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateKey, entry.Name)
		}
		prepared[i] = entry
	}

	if err := s.store.CreateMany(ctx, prepared); err != nil {
		return nil, err
	}

	log.Printf("[CATALOG] Added %d keys", len(prepared))
	return prepared, nil
}

// UpdateByName applies patch to the entry stored under name
func (s *CatalogService) UpdateByName(ctx context.Context, name string, patch domain.CatalogEntryPatch) (*domain.CatalogEntry, error) {
	entry, err := s.store.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: no entry named %q", domain.ErrKeyNotFound, name)
	}

	patch.Apply(entry)
	if err := prepareEntry(entry); err != nil {
		return nil, err
	}

	if entry.Name != name {
		clash, err := s.store.FindByName(ctx, entry.Name)
		if err != nil {
			return nil, err
		}
		if clash != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateKey, entry.Name)
		}
	}

	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}

	if s.enableDebugLogging {
		log.Printf("[CATALOG] Updated key %q -> %q", name, entry.Name)
	}
	return entry, nil
}

// DeleteByName removes the entry stored under name
func (s *CatalogService) DeleteByName(ctx context.Context, name string) error {
	entry, err := s.store.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: no entry named %q", domain.ErrKeyNotFound, name)
	}

	if err := s.store.Delete(ctx, entry.ID); err != nil {
		return err
	}

	log.Printf("[CATALOG] Deleted key %q", name)
	return nil
}

// prepareEntry trims identity fields, checks them and fills creation defaults
func prepareEntry(entry *domain.CatalogEntry) error {
	entry.Name = strings.TrimSpace(entry.Name)
	entry.Brand = strings.TrimSpace(entry.Brand)

	if entry.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if entry.Brand == "" {
		return fmt.Errorf("%w: brand is required", domain.ErrInvalidRequest)
	}
	if entry.Price < 0 || entry.PriceWithoutCard < 0 || entry.FileFee < 0 {
		return fmt.Errorf("%w: prices must not be negative", domain.ErrInvalidRequest)
	}

	if entry.ReproductionType == "" {
		entry.ReproductionType = domain.ReproductionCopy
	}
	if !entry.ReproductionType.Valid() {
		return fmt.Errorf("%w: unknown reproduction type %q", domain.ErrInvalidRequest, entry.ReproductionType)
	}

	if entry.BlankReference != nil {
		ref := strings.TrimSpace(*entry.BlankReference)
		if ref == "" {
			entry.BlankReference = nil
		} else {
			entry.BlankReference = &ref
		}
	}
	return nil
}
