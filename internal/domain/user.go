package domain

import (
	"context"
	"time"
)

type ContextKey string

const UserContextKey ContextKey = "user"

type User struct {
	ID       string `json:"id"` // UUID
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
}

// Address is a live, editable address book entry. Orders copy it.
type Address struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	FullName    string    `json:"fullName"`
	PhoneNumber string    `json:"phoneNumber"`
	Street      string    `json:"street"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  string    `json:"postalCode"`
	Country     string    `json:"country"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Snapshot is the immutable copy stored on an order.
func (a *Address) Snapshot() JSONB {
	return JSONB{
		"full_name":    a.FullName,
		"phone_number": a.PhoneNumber,
		"street":       a.Street,
		"city":         a.City,
		"state":        a.State,
		"postal_code":  a.PostalCode,
		"country":      a.Country,
	}
}

type AddressRepository interface {
	GetByID(ctx context.Context, id string) (*Address, error)
}
