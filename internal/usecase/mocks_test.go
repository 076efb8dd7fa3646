package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/textnorm"
)

// fakeCatalogStore is an in-memory domain.CatalogStore keeping insertion order
type fakeCatalogStore struct {
	entries []domain.CatalogEntry
	nextID  int64

	err           error // returned by every read when set
	substringHits int
	fullScans     int
	listCalls     int
	countCalls    int
}

func newFakeCatalogStore(names ...string) *fakeCatalogStore {
	s := &fakeCatalogStore{}
	for _, n := range names {
		brand := strings.Fields(n)[0]
		_ = s.Create(context.Background(), &domain.CatalogEntry{Name: n, Brand: brand})
	}
	return s
}

func (s *fakeCatalogStore) FindBySubstring(ctx context.Context, text string) ([]domain.CatalogEntry, error) {
	s.substringHits++
	if s.err != nil {
		return nil, s.err
	}
	needle := textnorm.Loose(text)
	var out []domain.CatalogEntry
	for _, e := range s.entries {
		if strings.Contains(textnorm.Loose(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeCatalogStore) FindAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	s.fullScans++
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.CatalogEntry(nil), s.entries...), nil
}

func (s *fakeCatalogStore) FindByExactName(ctx context.Context, name string) (*domain.CatalogEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	key := textnorm.Key(name)
	for _, e := range s.entries {
		if textnorm.Key(e.Name) == key {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *fakeCatalogStore) FindByName(ctx context.Context, name string) (*domain.CatalogEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, e := range s.entries {
		if e.Name == name {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *fakeCatalogStore) filter(q domain.CatalogQuery) []domain.CatalogEntry {
	var out []domain.CatalogEntry
	for _, e := range s.entries {
		if q.Brand == "" || strings.EqualFold(e.Brand, q.Brand) {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeCatalogStore) List(ctx context.Context, q domain.CatalogQuery) ([]domain.CatalogEntry, error) {
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := s.filter(q)
	if q.Offset >= len(out) {
		return []domain.CatalogEntry{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *fakeCatalogStore) Count(ctx context.Context, q domain.CatalogQuery) (int, error) {
	s.countCalls++
	if s.err != nil {
		return 0, s.err
	}
	return len(s.filter(q)), nil
}

func (s *fakeCatalogStore) Create(ctx context.Context, entry *domain.CatalogEntry) error {
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeCatalogStore) CreateMany(ctx context.Context, entries []domain.CatalogEntry) error {
	for i := range entries {
		if err := s.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeCatalogStore) Update(ctx context.Context, entry *domain.CatalogEntry) error {
	for i := range s.entries {
		if s.entries[i].ID == entry.ID {
			s.entries[i] = *entry
			return nil
		}
	}
	return domain.ErrKeyNotFound
}

func (s *fakeCatalogStore) Delete(ctx context.Context, id int64) error {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrKeyNotFound
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data     map[string]interface{}
	getError error
	setError error
	gets     int
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.gets++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// fakeOrderRepository is an in-memory domain.OrderRepository
type fakeOrderRepository struct {
	orders    map[string]domain.Order
	createErr error
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[string]domain.Order)}
}

func (r *fakeOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[order.Number] = *order
	return nil
}

func (r *fakeOrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	order, ok := r.orders[number]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (r *fakeOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	r.orders[order.Number] = *order
	return nil
}

func (r *fakeOrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, int, error) {
	var matched []domain.Order
	for _, o := range r.orders {
		if o.Status == status {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if offset >= total {
		return []domain.Order{}, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// recordingNotifier captures published events
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (n *recordingNotifier) Publish(event domain.OrderEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}
