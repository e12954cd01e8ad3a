package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Category is part of a shared taxonomy. It carries no owner; a caller sees
// it only through products of their own that reference it.
type Category struct {
    ID          uint64 `json:"id"`
    Name        string `json:"name"`
    Description string `json:"description"`
}

// Product belongs to a business and references one category.
type Product struct {
    ID           uint64          `json:"id"`
    BusinessID   uint64          `json:"business"`
    CategoryID   uint64          `json:"category_id"`
    CategoryName string          `json:"category_name"`
    Name         string          `json:"name"`
    Description  string          `json:"description"`
    Price        decimal.Decimal `json:"price"`
    Image        string          `json:"image"`
    IsAvailable  bool            `json:"is_available"`
    Stock        int             `json:"stock"`
    CreatedAt    time.Time       `json:"created_at"`
}
