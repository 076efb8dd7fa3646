package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/infrastructure/metrics"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100

	orderUpdateEvent = "orderUpdate"
)

// Delivery labels recorded on orders
const (
	deliveryByNumber = "par numero"
	deliveryByPost   = "par envoie postale"
)

// CreateOrderInput is the validated content of an order submission
type CreateOrderInput struct {
	CustomerName         string
	Address              string
	PostalCode           string
	City                 string
	AdditionalInfo       string
	Phone                string
	Email                string
	ArticleName          string
	KeyNumber            string
	PropertyCardNumber   string
	ShippingMethod       string
	DeliveryType         string
	Price                float64
	Quantity             int
	IsMasterKey          *bool
	OwnershipAttestation *bool
	LostPropertyCard     bool
	ProofOfAddressPath   string

	FrontPhoto  []byte
	BackPhoto   []byte
	IDCardFront []byte
	IDCardBack  []byte
}

// OrderPage is one page of a status-filtered order listing
type OrderPage struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// OrderService handles order intake and status changes
type OrderService struct {
	repo               domain.OrderRepository
	notifier           domain.OrderNotifier
	enableDebugLogging bool
	now                func() time.Time
}

// NewOrderService creates a new order service. notifier may be nil.
func NewOrderService(repo domain.OrderRepository, notifier domain.OrderNotifier, enableDebugLogging bool) *OrderService {
	return &OrderService{
		repo:               repo,
		notifier:           notifier,
		enableDebugLogging: enableDebugLogging,
		now:                time.Now,
	}
}

// Create validates input, stores a new order in status created and announces it
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.Phone) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, fmt.Errorf("%w: name, phone and email are required", domain.ErrInvalidRequest)
	}
	if input.LostPropertyCard && strings.TrimSpace(input.ProofOfAddressPath) == "" {
		return nil, fmt.Errorf("%w: proof of address is required when the property card is lost", domain.ErrInvalidRequest)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidRequest)
	}

	order := &domain.Order{
		ID:                   uuid.NewString(),
		Number:               newOrderNumber(),
		CustomerName:         strings.TrimSpace(input.CustomerName),
		PostalAddress:        fmt.Sprintf("%s, %s, %s, %s", input.Address, input.PostalCode, input.City, input.AdditionalInfo),
		Keys:                 nonBlank(input.ArticleName),
		KeyNumbers:           nonBlank(input.KeyNumber),
		PropertyCardNumber:   strings.TrimSpace(input.PropertyCardNumber),
		Phone:                strings.TrimSpace(input.Phone),
		Email:                strings.TrimSpace(input.Email),
		DeliveryTypes:        []string{deliveryByPost},
		ShippingMethod:       input.ShippingMethod,
		DeliveryType:         input.DeliveryType,
		ProofOfAddress:       strings.TrimSpace(input.ProofOfAddressPath),
		Status:               domain.OrderCreated,
		Price:                input.Price,
		IsMasterKey:          input.IsMasterKey,
		OwnershipAttestation: input.OwnershipAttestation,
		City:                 input.City,
		Quantity:             input.Quantity,
		CreatedAt:            s.now().UTC(),
	}
	order.HasPropertyCard = order.PropertyCardNumber != ""
	if len(order.KeyNumbers) > 0 {
		order.DeliveryTypes = []string{deliveryByNumber}
	}
	if order.Quantity <= 0 {
		order.Quantity = 1
	}

	attachments := []struct {
		field string
		data  []byte
		dst   *string
	}{
		{field: "frontPhoto", data: input.FrontPhoto, dst: &order.FrontPhoto},
		{field: "backPhoto", data: input.BackPhoto, dst: &order.BackPhoto},
		{field: "idCardFront", data: input.IDCardFront, dst: &order.IDCardFront},
		{field: "idCardBack", data: input.IDCardBack, dst: &order.IDCardBack},
	}
	for _, a := range attachments {
		encoded, err := encodeImage(a.field, a.data)
		if err != nil {
			return nil, err
		}
		*a.dst = encoded
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	metrics.OrderTransitions.WithLabelValues(string(domain.OrderCreated)).Inc()
	log.Printf("[ORDER] Created order %s for %q", order.Number, order.CustomerName)
	s.publish(*order)
	return order, nil
}

// Validate marks an order as paid
func (s *OrderService) Validate(ctx context.Context, number string) (*domain.Order, error) {
	return s.transition(ctx, number, domain.OrderPaid)
}

// Cancel marks an order as cancelled
func (s *OrderService) Cancel(ctx context.Context, number string) (*domain.Order, error) {
	return s.transition(ctx, number, domain.OrderCancelled)
}

// Get returns the order with the given number
func (s *OrderService) Get(ctx context.Context, number string) (*domain.Order, error) {
	order, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", number, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, number)
	}
	return order, nil
}

// ListPaid returns paid orders newest first. page starts at 1; limit defaults
// to 20 and is clamped to 100.
func (s *OrderService) ListPaid(ctx context.Context, page, limit int) (*OrderPage, error) {
	page = max(page, 1)
	if limit <= 0 {
		limit = defaultOrderPageSize
	}
	limit = min(limit, maxOrderPageSize)

	orders, total, err := s.repo.ListByStatus(ctx, domain.OrderPaid, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list paid orders (page=%d, limit=%d): %w", page, limit, err)
	}

	return &OrderPage{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

// Update applies patch to the order with the given number
func (s *OrderService) Update(ctx context.Context, number string, patch domain.OrderPatch) (*domain.Order, error) {
	order, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	patch.Apply(order)
	if order.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
	}
	if order.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidRequest)
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order %s: %w", number, err)
	}

	if s.enableDebugLogging {
		log.Printf("[ORDER] Updated order %s", number)
	}
	s.publish(*order)
	return order, nil
}

// transition moves an order to next. Repeating the current status is a no-op.
func (s *OrderService) transition(ctx context.Context, number string, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, next)
	}

	previous := order.Status
	order.Status = next
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order %s: %w", number, err)
	}

	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	log.Printf("[ORDER] Order %s: %s -> %s", number, previous, next)
	s.publish(*order)
	return order, nil
}

func (s *OrderService) publish(order domain.Order) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(domain.OrderEvent{Type: orderUpdateEvent, Order: order.WithoutAttachments()})
}

// newOrderNumber returns a short human-friendly order number such as CMD-1A2B3C4D
func newOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CMD-" + strings.ToUpper(id[:8])
}

// encodeImage base64-encodes an uploaded image. Empty uploads are allowed and
// yield ""; anything that does not sniff as an image is rejected.
func encodeImage(field string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: %s is %s, want an image", domain.ErrInvalidUpload, field, mtype.String())
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func nonBlank(values ...string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
