package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cleservice/backend/internal/domain"
)

const orderColumns = `id, number, customer_name, postal_address, keys_json, key_numbers_json,
		property_card_number, phone, email, delivery_types_json, shipping_method, delivery_type,
		front_photo, back_photo, id_card_front, id_card_back, proof_of_address, status, price,
		is_master_key, has_property_card, ownership_attestation, city, quantity, created_at`

// OrderStore is the sqlite implementation of domain.OrderRepository.
// String lists are stored as JSON text.
type OrderStore struct {
	DB *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{DB: db}
}

func (s *OrderStore) Create(ctx context.Context, order *domain.Order) error {
	args, err := orderArgs(order)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO orders (
			customer_name, postal_address, keys_json, key_numbers_json,
			property_card_number, phone, email, delivery_types_json, shipping_method, delivery_type,
			front_photo, back_photo, id_card_front, id_card_back, proof_of_address, status, price,
			is_master_key, has_property_card, ownership_attestation, city, quantity, created_at,
			id, number
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append(args, order.ID, order.Number)...)
	if err != nil {
		return fmt.Errorf("insert order: %w", mapWriteError(err, order.Number))
	}
	return nil
}

func (s *OrderStore) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = ?`, number)
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &order, nil
}

func (s *OrderStore) Update(ctx context.Context, order *domain.Order) error {
	args, err := orderArgs(order)
	if err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE orders SET
			customer_name = ?, postal_address = ?, keys_json = ?, key_numbers_json = ?,
			property_card_number = ?, phone = ?, email = ?, delivery_types_json = ?, shipping_method = ?,
			delivery_type = ?, front_photo = ?, back_photo = ?, id_card_front = ?, id_card_back = ?,
			proof_of_address = ?, status = ?, price = ?, is_master_key = ?, has_property_card = ?,
			ownership_attestation = ?, city = ?, quantity = ?, created_at = ?
		WHERE number = ?
	`, append(args, order.Number)...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.Number)
	}
	return nil
}

func (s *OrderStore) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, int, error) {
	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE status = ?`, string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scan: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, string(status), limit, max(offset, 0))
	if err != nil {
		return nil, 0, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// orderArgs returns the mutable columns in the order used by INSERT and UPDATE
func orderArgs(o *domain.Order) ([]any, error) {
	keys, err := marshalList(o.Keys)
	if err != nil {
		return nil, err
	}
	keyNumbers, err := marshalList(o.KeyNumbers)
	if err != nil {
		return nil, err
	}
	deliveryTypes, err := marshalList(o.DeliveryTypes)
	if err != nil {
		return nil, err
	}

	return []any{
		o.CustomerName, o.PostalAddress, keys, keyNumbers,
		o.PropertyCardNumber, o.Phone, o.Email, deliveryTypes, o.ShippingMethod, o.DeliveryType,
		o.FrontPhoto, o.BackPhoto, o.IDCardFront, o.IDCardBack, o.ProofOfAddress, string(o.Status), o.Price,
		o.IsMasterKey, o.HasPropertyCard, o.OwnershipAttestation, o.City, o.Quantity, o.CreatedAt.UnixNano(),
	}, nil
}

func scanOrder(row scanner) (domain.Order, error) {
	var (
		o                    domain.Order
		keys                 string
		keyNumbers           string
		deliveryTypes        string
		status               string
		isMasterKey          sql.NullBool
		ownershipAttestation sql.NullBool
		createdAt            int64
	)

	if err := row.Scan(
		&o.ID, &o.Number, &o.CustomerName, &o.PostalAddress, &keys, &keyNumbers,
		&o.PropertyCardNumber, &o.Phone, &o.Email, &deliveryTypes, &o.ShippingMethod, &o.DeliveryType,
		&o.FrontPhoto, &o.BackPhoto, &o.IDCardFront, &o.IDCardBack, &o.ProofOfAddress, &status, &o.Price,
		&isMasterKey, &o.HasPropertyCard, &ownershipAttestation, &o.City, &o.Quantity, &createdAt,
	); err != nil {
		return o, err
	}

	o.Status = domain.OrderStatus(status)
	o.CreatedAt = time.Unix(0, createdAt).UTC()
	if isMasterKey.Valid {
		o.IsMasterKey = &isMasterKey.Bool
	}
	if ownershipAttestation.Valid {
		o.OwnershipAttestation = &ownershipAttestation.Bool
	}

	_ = json.Unmarshal([]byte(keys), &o.Keys)
	_ = json.Unmarshal([]byte(keyNumbers), &o.KeyNumbers)
	_ = json.Unmarshal([]byte(deliveryTypes), &o.DeliveryTypes)
	return o, nil
}

func marshalList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(b), nil
}
