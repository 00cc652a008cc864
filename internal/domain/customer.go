package domain

import "time"

// Customer is a local mirror of a gateway CRM contact.
type Customer struct {
	ID              string    `json:"id"`
	SumitCustomerID string    `json:"sumit_customer_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	City            string    `json:"city,omitempty"`
	Country         string    `json:"country,omitempty"`
	ZipCode         string    `json:"zip_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
