package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"electrocart_back_end/internal/models"
)

const orderColumns = `id, user_id, items, shipping_address, total, payment_method, is_paid, paid_at,
	status, delivery_status, tracking_number, delivery_updates, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var items, address, updates []byte
	var delivery string
	err := row.Scan(&o.ID, &o.UserID, &items, &address, &o.Total, &o.PaymentMethod, &o.IsPaid,
		&o.PaidAt, &o.Status, &delivery, &o.TrackingNumber, &updates, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, wrapError(err)
	}
	o.DeliveryStatus = models.DeliveryStatus(delivery)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(updates, &o.DeliveryUpdates); err != nil {
		return nil, fmt.Errorf("unmarshal delivery updates: %w", err)
	}
	return &o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}
	updates, err := json.Marshal(o.DeliveryUpdates)
	if err != nil {
		return fmt.Errorf("marshal delivery updates: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14)`,
		o.ID, o.UserID, string(items), string(address), o.Total, o.PaymentMethod, o.IsPaid, o.PaidAt,
		o.Status, string(o.DeliveryStatus), o.TrackingNumber, string(updates), o.CreatedAt, o.UpdatedAt)
	return wrapError(err)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (s *Store) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at, id`)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, change models.StatusChange, entry *models.DeliveryUpdate, now time.Time) (*models.Order, error) {
	appended := "[]"
	if entry != nil {
		b, err := json.Marshal([]models.DeliveryUpdate{*entry})
		if err != nil {
			return nil, fmt.Errorf("marshal delivery update: %w", err)
		}
		appended = string(b)
	}

	var delivery *string
	if change.DeliveryStatus != nil {
		v := string(*change.DeliveryStatus)
		delivery = &v
	}

	return scanOrder(s.db.QueryRow(ctx, `
		UPDATE orders SET
			status = COALESCE($2, status),
			delivery_status = COALESCE($3, delivery_status),
			tracking_number = COALESCE($4, tracking_number),
			delivery_updates = delivery_updates || $5::jsonb,
			updated_at = $6
		WHERE id = $1
		RETURNING `+orderColumns,
		id, change.Status, delivery, change.TrackingNumber, appended, now))
}
