package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleservice/backend/internal/domain"
)

func newOrder(number string, status domain.OrderStatus, createdAt time.Time) *domain.Order {
	yes := true
	return &domain.Order{
		ID:            "id-" + number,
		Number:        number,
		CustomerName:  "Jeanne Martin",
		PostalAddress: "12 rue des Lilas, 75011, Paris, ",
		Keys:          []string{"Abus E30"},
		KeyNumbers:    []string{},
		Phone:         "0600000000",
		Email:         "jeanne@example.com",
		DeliveryTypes: []string{"par envoie postale"},
		FrontPhoto:    "aGVsbG8=",
		Status:        status,
		Price:         24.9,
		IsMasterKey:   &yes,
		City:          "Paris",
		Quantity:      1,
		CreatedAt:     createdAt.UTC(),
	}
}

func TestOrderStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore(newTestDB(t))

	order := newOrder("CMD-00000001", domain.OrderCreated, time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC))
	require.NoError(t, store.Create(ctx, order))

	got, err := store.GetByNumber(ctx, order.Number)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *order, *got)
	assert.Nil(t, got.OwnershipAttestation)

	missing, err := store.GetByNumber(ctx, "CMD-NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, store.Create(ctx, order), domain.ErrDuplicateKey)
}

func TestOrderStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore(newTestDB(t))

	order := newOrder("CMD-00000002", domain.OrderCreated, time.Now())
	require.NoError(t, store.Create(ctx, order))

	order.Status = domain.OrderPaid
	order.Quantity = 2
	require.NoError(t, store.Update(ctx, order))

	got, err := store.GetByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, got.Status)
	assert.Equal(t, 2, got.Quantity)

	ghost := newOrder("CMD-GHOST", domain.OrderPaid, time.Now())
	assert.ErrorIs(t, store.Update(ctx, ghost), domain.ErrOrderNotFound)
}

func TestOrderStore_ListByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore(newTestDB(t))

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		status := domain.OrderPaid
		if i == 2 {
			status = domain.OrderCancelled
		}
		order := newOrder(fmt.Sprintf("CMD-%08d", i), status, start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Create(ctx, order))
	}

	page, total, err := store.ListByStatus(ctx, domain.OrderPaid, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "CMD-00000004", page[0].Number)
	assert.Equal(t, "CMD-00000003", page[1].Number)

	page, _, err = store.ListByStatus(ctx, domain.OrderPaid, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "CMD-00000001", page[0].Number)
	assert.Equal(t, "CMD-00000000", page[1].Number)

	page, total, err = store.ListByStatus(ctx, domain.OrderCreated, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}
