package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrder_CalculateTotal(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{UnitPrice: 10.00, Quantity: 2, Subtotal: 20.00},
			{UnitPrice: 25.00, Quantity: 1, Subtotal: 25.00},
		},
	}

	order.CalculateTotal()

	assert.InDelta(t, 45.00, order.TotalAmount, 0.001)
}

func TestOrder_CalculateTotal_NoItems(t *testing.T) {
	order := &Order{}
	order.CalculateTotal()
	assert.Zero(t, order.TotalAmount)
}

func TestOrder_CanBeCancelled(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusConfirmed, true},
		{OrderStatusPreparing, false},
		{OrderStatusReadyForPickup, false},
		{OrderStatusInTransit, false},
		{OrderStatusCompleted, false},
		{OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			order := &Order{Status: tt.status}
			assert.Equal(t, tt.want, order.CanBeCancelled())
		})
	}
}

func TestOrder_HasAlcohol(t *testing.T) {
	dry := &Order{Items: []OrderItem{{Name: "Crisps"}, {Name: "Soda"}}}
	assert.False(t, dry.HasAlcohol())

	mixed := &Order{Items: []OrderItem{{Name: "Crisps"}, {Name: "Gin", Alcohol: true}}}
	assert.True(t, mixed.HasAlcohol())
}

func TestOrder_HasDriver(t *testing.T) {
	order := &Order{}
	assert.False(t, order.HasDriver())

	driverID := uuid.New()
	order.DriverID = &driverID
	assert.True(t, order.HasDriver())
}

func TestDelivery_Active(t *testing.T) {
	for _, status := range []DeliveryStatus{
		DeliveryStatusPending,
		DeliveryStatusAssigned,
		DeliveryStatusPickedUp,
		DeliveryStatusInTransit,
		DeliveryStatusDelivered,
	} {
		d := &Delivery{Status: status}
		assert.True(t, d.Active(), "status %s", status)
	}

	assert.False(t, (&Delivery{Status: DeliveryStatusCancelled}).Active())
	assert.False(t, (&Delivery{Status: DeliveryStatusFailed}).Active())
}

func TestDriver_CanAcceptDeliveries(t *testing.T) {
	activeUser := &User{Active: true}
	inactiveUser := &User{Active: false}

	ready := &Driver{Available: true, CertificationStatus: CertificationApproved}
	assert.True(t, ready.CanAcceptDeliveries(activeUser))
	assert.False(t, ready.CanAcceptDeliveries(inactiveUser))
	assert.False(t, ready.CanAcceptDeliveries(nil))

	unavailable := &Driver{Available: false, CertificationStatus: CertificationApproved}
	assert.False(t, unavailable.CanAcceptDeliveries(activeUser))

	uncertified := &Driver{Available: true, CertificationStatus: CertificationPending}
	assert.False(t, uncertified.CanAcceptDeliveries(activeUser))

	revoked := &Driver{Available: true, CertificationStatus: CertificationRevoked}
	assert.False(t, revoked.CanAcceptDeliveries(activeUser))
}

func TestDomainError_Kinds(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("bad input")))
	assert.True(t, IsCompliance(NewComplianceError("not verified")))
	assert.True(t, IsStateTransition(NewStateTransitionError("no path")))
	assert.True(t, IsNotFound(NewNotFoundError("missing")))
	assert.True(t, IsAuthorization(NewAuthorizationError("denied")))
	assert.True(t, IsConflict(NewConflictError("taken")))

	err := NewConflictError("order %s already claimed", "abc")
	assert.False(t, IsValidation(err))
	assert.Equal(t, "order abc already claimed", err.Error())
}
