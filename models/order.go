package models

import "time"

// Order is a confirmed purchase as recorded by the order store.
type Order struct {
	ID            string      `json:"id"`
	Total         float64     `json:"total"`
	CreatedAt     time.Time   `json:"created_at"`
	CustomerEmail string      `json:"customer_email"`
	Items         []OrderItem `json:"items"`
	IsTest        bool        `json:"is_test,omitempty"`
}

type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
