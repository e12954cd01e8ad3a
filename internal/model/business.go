package model

import "time"

// Business is owned by exactly one account. AccountID is set from the
// caller's identity at creation and never changes afterwards.
type Business struct {
    ID          uint64    `json:"id"`
    AccountID   uint64    `json:"-"`
    Name        string    `json:"name"`
    Description string    `json:"description"`
    Tagline     string    `json:"tagline"`
    Industry    string    `json:"industry"`
    Logo        string    `json:"logo"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// ContactInfo is the one-to-one contact card of a business. Nil fields
// have never been written.
type ContactInfo struct {
    ID         uint64    `json:"id"`
    BusinessID uint64    `json:"business"`
    Email      *string   `json:"email"`
    Phone      *string   `json:"phone"`
    Address    *string   `json:"address"`
    City       *string   `json:"city"`
    State      *string   `json:"state"`
    PostalCode *string   `json:"postal_code"`
    Country    *string   `json:"country"`
    UpdatedAt  time.Time `json:"updated_at"`
}
