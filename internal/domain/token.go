package domain

import "time"

// TokenRecord is a stored card token belonging to an owner. The token value
// is the gateway's opaque reference; no card number is ever stored.
type TokenRecord struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Token          string         `json:"-"`
	LastFourDigits string         `json:"last_four_digits,omitempty"`
	ExpiryMonth    int            `json:"expiry_month,omitempty"`
	ExpiryYear     int            `json:"expiry_year,omitempty"`
	Brand          string         `json:"brand,omitempty"`
	CardholderName string         `json:"cardholder_name,omitempty"`
	IsDefault      bool           `json:"is_default"`
	IsActive       bool           `json:"is_active"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	LastUsedAt     *time.Time     `json:"last_used_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
