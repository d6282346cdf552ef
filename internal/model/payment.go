package model

import (
	"time"

	"github.com/google/uuid"
)

// Payment is one entry in the append-only payment ledger of an order. The
// order's current payment state is the most recent entry; earlier entries are
// retained for audit.
type Payment struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	OrderID       uuid.UUID     `json:"orderId" db:"order_id"`
	UserID        uuid.UUID     `json:"userId" db:"user_id"`
	Amount        float64       `json:"amount" db:"amount"`
	Status        PaymentStatus `json:"status" db:"status"`
	PaymentMethod string        `json:"paymentMethod" db:"payment_method"`
	TransactionID string        `json:"transactionId,omitempty" db:"transaction_id"`
	FailureReason string        `json:"failureReason,omitempty" db:"failure_reason"`
	RefundReason  string        `json:"refundReason,omitempty" db:"refund_reason"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
}
