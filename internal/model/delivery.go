package model

import (
	"time"

	"github.com/google/uuid"
)

// Delivery tracks the physical fulfilment of exactly one order.
type Delivery struct {
	ID       uuid.UUID  `json:"id" db:"id"`
	OrderID  uuid.UUID  `json:"orderId" db:"order_id"`
	DriverID *uuid.UUID `json:"driverId,omitempty" db:"driver_id"`

	Status          DeliveryStatus `json:"status" db:"status"`
	DeliveryAddress string         `json:"deliveryAddress" db:"delivery_address"`

	// Destination coordinates.
	DeliveryLatitude  *float64 `json:"deliveryLatitude,omitempty" db:"delivery_latitude"`
	DeliveryLongitude *float64 `json:"deliveryLongitude,omitempty" db:"delivery_longitude"`

	PickupTime            *time.Time `json:"pickupTime,omitempty" db:"pickup_time"`
	DeliveredTime         *time.Time `json:"deliveredTime,omitempty" db:"delivered_time"`
	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime,omitempty" db:"estimated_delivery_time"`

	// Age verification. IDNumber holds the last 4 characters only.
	AgeVerified   bool       `json:"ageVerified" db:"age_verified"`
	IDType        string     `json:"idType,omitempty" db:"id_type"`
	IDNumber      string     `json:"idNumber,omitempty" db:"id_number"`
	AgeVerifiedAt *time.Time `json:"ageVerifiedAt,omitempty" db:"age_verified_at"`

	// Live driver tracking.
	CurrentLatitude    *float64   `json:"currentLatitude,omitempty" db:"current_latitude"`
	CurrentLongitude   *float64   `json:"currentLongitude,omitempty" db:"current_longitude"`
	LastLocationUpdate *time.Time `json:"lastLocationUpdate,omitempty" db:"last_location_update"`

	CancellationReason string `json:"cancellationReason,omitempty" db:"cancellation_reason"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Active reports whether the delivery still blocks another driver claim on
// its order.
func (d *Delivery) Active() bool {
	return d.Status != DeliveryStatusCancelled && d.Status != DeliveryStatusFailed
}
