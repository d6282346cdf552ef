package model

import (
	"time"

	"github.com/google/uuid"
)

// RatingTargetType identifies which party of an order a rating scores.
type RatingTargetType string

const (
	RatingTargetDriver   RatingTargetType = "DRIVER"
	RatingTargetMerchant RatingTargetType = "MERCHANT"
)

// Valid reports whether the target type is a known value.
func (t RatingTargetType) Valid() bool {
	return t == RatingTargetDriver || t == RatingTargetMerchant
}

// Rating scores the driver or the merchant of one completed order. An order
// can rate each target type at most once.
type Rating struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	OrderID    uuid.UUID        `json:"orderId" db:"order_id"`
	RaterID    uuid.UUID        `json:"raterId" db:"rater_id"`
	TargetType RatingTargetType `json:"targetType" db:"target_type"`
	TargetID   uuid.UUID        `json:"targetId" db:"target_id"`
	Score      int              `json:"score" db:"score"`
	Comment    string           `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
}

// RateOrderRequest is the payload for rating an order's driver or merchant.
type RateOrderRequest struct {
	TargetType RatingTargetType `json:"targetType"`
	Score      int              `json:"score"`
	Comment    string           `json:"comment,omitempty"`
}
