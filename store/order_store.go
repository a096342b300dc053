package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gemstore/api/models"
)

// OrderStore reads confirmed orders from the storefront database.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// ListOrders returns orders created inside [start, end]. Dev mode returns only
// test orders, live mode excludes them.
func (s *OrderStore) ListOrders(ctx context.Context, mode models.Mode, start, end time.Time) ([]models.Order, error) {
	query := `
		SELECT id, total, created_at, customer_email, items, is_test
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2 AND is_test = $3
		ORDER BY created_at ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, start, end, mode.IncludesTest())
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var (
			o     models.Order
			items []byte
		)
		if err := rows.Scan(&o.ID, &o.Total, &o.CreatedAt, &o.CustomerEmail, &items, &o.IsTest); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &o.Items); err != nil {
				log.Printf("Order %s has unreadable items, treating as empty: %v", o.ID, err)
				o.Items = nil
			}
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return orders, nil
}
