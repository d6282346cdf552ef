package model

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a customer's purchase against one merchant.
type Order struct {
	ID                    uuid.UUID   `json:"id" db:"id"`
	CustomerID            uuid.UUID   `json:"customerId" db:"customer_id"`
	MerchantID            uuid.UUID   `json:"merchantId" db:"merchant_id"`
	DriverID              *uuid.UUID  `json:"driverId,omitempty" db:"driver_id"`
	Status                OrderStatus `json:"status" db:"status"`
	TotalAmount           float64     `json:"totalAmount" db:"total_amount"`
	DeliveryAddress       string      `json:"deliveryAddress" db:"delivery_address"`
	SpecialInstructions   string      `json:"specialInstructions,omitempty" db:"special_instructions"`
	AgeVerified           bool        `json:"ageVerified" db:"age_verified"`
	EstimatedDeliveryTime *time.Time  `json:"estimatedDeliveryTime,omitempty" db:"estimated_delivery_time"`
	Items                 []OrderItem `json:"items" db:"-"`
	CreatedAt             time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem is an immutable snapshot of a product at order time. ProductID is
// nullable so the snapshot survives product deletion.
type OrderItem struct {
	ID        uuid.UUID  `json:"-" db:"id"`
	OrderID   uuid.UUID  `json:"-" db:"order_id"`
	ProductID *uuid.UUID `json:"productId,omitempty" db:"product_id"`
	LineNo    int        `json:"lineNo" db:"line_no"`
	Name      string     `json:"name" db:"name"`
	UnitPrice float64    `json:"unitPrice" db:"unit_price"`
	Quantity  int        `json:"quantity" db:"quantity"`
	Subtotal  float64    `json:"subtotal" db:"subtotal"`
	Alcohol   bool       `json:"alcohol" db:"alcohol"`
}

// CalculateTotal recomputes TotalAmount as the sum of item subtotals.
func (o *Order) CalculateTotal() {
	total := 0.0
	for _, item := range o.Items {
		total += item.Subtotal
	}
	o.TotalAmount = total
}

// CanBeCancelled reports whether the order is still in a cancellable state.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// HasDriver reports whether a driver has claimed the order.
func (o *Order) HasDriver() bool {
	return o.DriverID != nil
}

// HasAlcohol reports whether any line item snapshot is an alcohol product.
func (o *Order) HasAlcohol() bool {
	for _, item := range o.Items {
		if item.Alcohol {
			return true
		}
	}
	return false
}

// CreateOrderRequest is the payload for creating an order. The destination
// coordinates are optional; when given they seed the delivery record so
// dispatch can route without geocoding the address.
type CreateOrderRequest struct {
	CustomerID          uuid.UUID          `json:"customerId"`
	MerchantID          uuid.UUID          `json:"merchantId"`
	DeliveryAddress     string             `json:"deliveryAddress"`
	DeliveryLatitude    *float64           `json:"deliveryLatitude,omitempty"`
	DeliveryLongitude   *float64           `json:"deliveryLongitude,omitempty"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
	PaymentMethod       string             `json:"paymentMethod"`
	Items               []OrderItemRequest `json:"items"`
}

// OrderItemRequest is a single requested line item. Name and UnitPrice are
// optional overrides; when absent they are snapshotted from the catalog.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Name      string    `json:"name,omitempty"`
	UnitPrice *float64  `json:"unitPrice,omitempty"`
}
