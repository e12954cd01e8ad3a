package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Order statuses.
const (
    OrderPending   = "pending"
    OrderConfirmed = "confirmed"
    OrderCompleted = "completed"
    OrderCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is one of the order statuses.
func ValidOrderStatus(s string) bool {
    switch s {
    case OrderPending, OrderConfirmed, OrderCompleted, OrderCancelled:
        return true
    }
    return false
}

// Order is owned through its product: order -> product -> business -> account.
type Order struct {
    ID            uint64          `json:"id"`
    ProductID     uint64          `json:"product_id"`
    ProductName   string          `json:"product_name"`
    CustomerName  string          `json:"customer_name"`
    CustomerEmail string          `json:"customer_email"`
    CustomerPhone string          `json:"customer_phone"`
    Quantity      int             `json:"quantity"`
    TotalPrice    decimal.Decimal `json:"total_price"`
    Status        string          `json:"status"`
    Notes         string          `json:"notes"`
    CreatedAt     time.Time       `json:"created_at"`
}
