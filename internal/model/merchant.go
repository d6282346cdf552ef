package model

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is a seller fulfilling orders from a fixed location.
type Merchant struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Address     string    `json:"address" db:"address"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Email       string    `json:"email,omitempty" db:"email"`
	OpeningTime string    `json:"openingTime,omitempty" db:"opening_time"`
	ClosingTime string    `json:"closingTime,omitempty" db:"closing_time"`
	Active      bool      `json:"active" db:"active"`
	Latitude    *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64  `json:"longitude,omitempty" db:"longitude"`
	Rating      float64   `json:"rating" db:"rating"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// HasLocation reports whether the merchant has known coordinates.
func (m *Merchant) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}
