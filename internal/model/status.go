package model

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	OrderStatusInTransit      OrderStatus = "IN_TRANSIT"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// orderTransitions is the complete order state machine. Any pair not listed
// here is rejected.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusReadyForPickup},
	OrderStatusReadyForPickup: {OrderStatusInTransit},
	OrderStatusInTransit:      {OrderStatusCompleted},
}

// AssignableOrderStatuses are the statuses in which an order may still be
// claimed by a driver.
var AssignableOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
}

// CanTransitionTo reports whether the order state machine allows moving from
// s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReadyForPickup, OrderStatusInTransit, OrderStatusCompleted,
		OrderStatusCancelled:
		return true
	}
	return false
}

// DeliveryStatus is the lifecycle state of a delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryStatusPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryStatusInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusCancelled DeliveryStatus = "CANCELLED"
)

// deliveryTransitions is the complete delivery state machine. CANCELLED and
// FAILED are reachable from every non-terminal state.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:   {DeliveryStatusAssigned, DeliveryStatusCancelled, DeliveryStatusFailed},
	DeliveryStatusAssigned:  {DeliveryStatusPickedUp, DeliveryStatusCancelled, DeliveryStatusFailed},
	DeliveryStatusPickedUp:  {DeliveryStatusInTransit, DeliveryStatusDelivered, DeliveryStatusCancelled, DeliveryStatusFailed},
	DeliveryStatusInTransit: {DeliveryStatusDelivered, DeliveryStatusCancelled, DeliveryStatusFailed},
}

// CanTransitionTo reports whether the delivery state machine allows moving
// from s to next.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s DeliveryStatus) IsTerminal() bool {
	return len(deliveryTransitions[s]) == 0
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusAssigned, DeliveryStatusPickedUp,
		DeliveryStatusInTransit, DeliveryStatusDelivered, DeliveryStatusFailed,
		DeliveryStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the state of a payment ledger entry.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusCaptured   PaymentStatus = "CAPTURED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// CertificationStatus is the compliance-review state of a driver.
type CertificationStatus string

const (
	CertificationPending  CertificationStatus = "PENDING"
	CertificationApproved CertificationStatus = "APPROVED"
	CertificationRevoked  CertificationStatus = "REVOKED"
)

// Valid reports whether s is a known certification status.
func (s CertificationStatus) Valid() bool {
	switch s {
	case CertificationPending, CertificationApproved, CertificationRevoked:
		return true
	}
	return false
}
