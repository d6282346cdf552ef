package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry belonging to one merchant.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	MerchantID  uuid.UUID `json:"merchantId" db:"merchant_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Alcohol     bool      `json:"alcohol" db:"alcohol"`
	Available   bool      `json:"available" db:"available"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
