package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cleservice/backend/internal/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName: "Jeanne Martin",
		Address:      "12 rue des Lilas",
		PostalCode:   "75011",
		City:         "Paris",
		Phone:        "0600000000",
		Email:        "jeanne@example.com",
		ArticleName:  "Abus E30",
		Price:        24.9,
	}
}

func newTestOrderService() (*OrderService, *fakeOrderRepository, *recordingNotifier) {
	repo := newFakeOrderRepository()
	notifier := &recordingNotifier{}
	svc := NewOrderService(repo, notifier, false)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc, repo, notifier
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("stores order and publishes event", func(t *testing.T) {
		svc, repo, notifier := newTestOrderService()
		input := validOrderInput()
		input.FrontPhoto = pngHeader

		order, err := svc.Create(ctx, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.HasPrefix(order.Number, "CMD-") || len(order.Number) != 12 {
			t.Errorf("unexpected order number %q", order.Number)
		}
		if order.Status != domain.OrderCreated {
			t.Errorf("Status = %q, want %q", order.Status, domain.OrderCreated)
		}
		if order.Quantity != 1 {
			t.Errorf("Quantity = %d, want default 1", order.Quantity)
		}
		if order.PostalAddress != "12 rue des Lilas, 75011, Paris, " {
			t.Errorf("PostalAddress = %q", order.PostalAddress)
		}
		if order.DeliveryTypes[0] != deliveryByPost {
			t.Errorf("DeliveryTypes = %v, want postal delivery", order.DeliveryTypes)
		}
		if order.FrontPhoto != base64.StdEncoding.EncodeToString(pngHeader) {
			t.Error("front photo not stored as base64")
		}
		if _, ok := repo.orders[order.Number]; !ok {
			t.Error("order not persisted")
		}

		if len(notifier.events) != 1 {
			t.Fatalf("published %d events, want 1", len(notifier.events))
		}
		event := notifier.events[0]
		if event.Type != orderUpdateEvent {
			t.Errorf("event type = %q", event.Type)
		}
		if event.Order.FrontPhoto != "" {
			t.Error("event must not carry attachments")
		}
	})

	t.Run("key number switches delivery label", func(t *testing.T) {
		svc, _, _ := newTestOrderService()
		input := validOrderInput()
		input.KeyNumber = "E30-1234"
		input.PropertyCardNumber = "C-99"

		order, err := svc.Create(ctx, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.DeliveryTypes[0] != deliveryByNumber {
			t.Errorf("DeliveryTypes = %v, want delivery by number", order.DeliveryTypes)
		}
		if !order.HasPropertyCard {
			t.Error("HasPropertyCard should be set")
		}
	})

	tests := []struct {
		name    string
		mutate  func(*CreateOrderInput)
		wantErr error
	}{
		{"missing email", func(in *CreateOrderInput) { in.Email = " " }, domain.ErrInvalidRequest},
		{"missing name", func(in *CreateOrderInput) { in.CustomerName = "" }, domain.ErrInvalidRequest},
		{"lost card without proof", func(in *CreateOrderInput) { in.LostPropertyCard = true }, domain.ErrInvalidRequest},
		{"negative price", func(in *CreateOrderInput) { in.Price = -5 }, domain.ErrInvalidRequest},
		{"non image upload", func(in *CreateOrderInput) { in.BackPhoto = []byte("%PDF-1.4 not an image") }, domain.ErrInvalidUpload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, notifier := newTestOrderService()
			input := validOrderInput()
			tt.mutate(&input)

			_, err := svc.Create(ctx, input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(repo.orders) != 0 || len(notifier.events) != 0 {
				t.Error("rejected order must not be stored or published")
			}
		})
	}

	t.Run("repository failure is wrapped", func(t *testing.T) {
		svc, repo, notifier := newTestOrderService()
		repo.createErr = errors.New("disk full")

		_, err := svc.Create(ctx, validOrderInput())
		if !errors.Is(err, repo.createErr) {
			t.Errorf("expected wrapped repository error, got %v", err)
		}
		if len(notifier.events) != 0 {
			t.Error("failed order must not be published")
		}
	})
}

func TestOrderTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		steps   []func(*OrderService, string) (*domain.Order, error)
		want    domain.OrderStatus
		wantErr error
	}{
		{
			name:  "validate",
			steps: []func(*OrderService, string) (*domain.Order, error){validateStep(ctx)},
			want:  domain.OrderPaid,
		},
		{
			name:  "cancel after payment",
			steps: []func(*OrderService, string) (*domain.Order, error){validateStep(ctx), cancelStep(ctx)},
			want:  domain.OrderCancelled,
		},
		{
			name:  "validate twice is a no-op",
			steps: []func(*OrderService, string) (*domain.Order, error){validateStep(ctx), validateStep(ctx)},
			want:  domain.OrderPaid,
		},
		{
			name:    "cancelled order cannot be paid",
			steps:   []func(*OrderService, string) (*domain.Order, error){cancelStep(ctx), validateStep(ctx)},
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestOrderService()
			created, err := svc.Create(ctx, validOrderInput())
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			var order *domain.Order
			for _, step := range tt.steps {
				order, err = step(svc, created.Number)
				if err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order.Status != tt.want || repo.orders[created.Number].Status != tt.want {
				t.Errorf("status = %q (stored %q), want %q", order.Status, repo.orders[created.Number].Status, tt.want)
			}
		})
	}

	t.Run("unknown order", func(t *testing.T) {
		svc, _, _ := newTestOrderService()
		if _, err := svc.Validate(ctx, "CMD-MISSING"); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("no-op does not publish", func(t *testing.T) {
		svc, _, notifier := newTestOrderService()
		created, _ := svc.Create(ctx, validOrderInput())
		_, _ = svc.Validate(ctx, created.Number)
		_, _ = svc.Validate(ctx, created.Number)

		if len(notifier.events) != 2 {
			t.Errorf("published %d events, want 2 (create and one validate)", len(notifier.events))
		}
	})
}

func validateStep(ctx context.Context) func(*OrderService, string) (*domain.Order, error) {
	return func(s *OrderService, number string) (*domain.Order, error) { return s.Validate(ctx, number) }
}

func cancelStep(ctx context.Context) func(*OrderService, string) (*domain.Order, error) {
	return func(s *OrderService, number string) (*domain.Order, error) { return s.Cancel(ctx, number) }
}

func TestListPaid(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestOrderService()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var numbers []string
	for i := 0; i < 5; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		order, err := svc.Create(ctx, validOrderInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		numbers = append(numbers, order.Number)
	}
	for _, n := range numbers[:4] {
		if _, err := svc.Validate(ctx, n); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	page, err := svc.ListPaid(ctx, 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 4 || len(page.Orders) != 3 {
		t.Fatalf("page = %d orders of %d, want 3 of 4", len(page.Orders), page.Total)
	}
	if page.Orders[0].Number != numbers[3] {
		t.Errorf("first order = %s, want newest paid %s", page.Orders[0].Number, numbers[3])
	}

	page, err = svc.ListPaid(ctx, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Orders) != 1 || page.Orders[0].Number != numbers[0] {
		t.Errorf("second page = %v", page.Orders)
	}

	page, err = svc.ListPaid(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Page != 1 || page.Limit != defaultOrderPageSize {
		t.Errorf("defaults not applied: page=%d limit=%d", page.Page, page.Limit)
	}

	page, _ = svc.ListPaid(ctx, 1, 1000)
	if page.Limit != maxOrderPageSize {
		t.Errorf("limit = %d, want clamp to %d", page.Limit, maxOrderPageSize)
	}
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifier := newTestOrderService()
	created, _ := svc.Create(ctx, validOrderInput())

	quantity := 3
	city := "Lyon"
	order, err := svc.Update(ctx, created.Number, domain.OrderPatch{Quantity: &quantity, City: &city})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Quantity != 3 || repo.orders[created.Number].City != "Lyon" {
		t.Errorf("patch not applied: %+v", order)
	}
	if len(notifier.events) != 2 {
		t.Errorf("published %d events, want 2", len(notifier.events))
	}

	zero := 0
	if _, err := svc.Update(ctx, created.Number, domain.OrderPatch{Quantity: &zero}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := svc.Update(ctx, "CMD-NOPE", domain.OrderPatch{}); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}
