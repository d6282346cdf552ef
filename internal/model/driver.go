package model

import (
	"time"

	"github.com/google/uuid"
)

// Driver is a courier profile linked 1:1 to a user account.
type Driver struct {
	ID                  uuid.UUID           `json:"id" db:"id"`
	UserID              uuid.UUID           `json:"userId" db:"user_id"`
	VehicleType         string              `json:"vehicleType,omitempty" db:"vehicle_type"`
	LicensePlate        string              `json:"licensePlate,omitempty" db:"license_plate"`
	Available           bool                `json:"available" db:"available"`
	CertificationStatus CertificationStatus `json:"certificationStatus" db:"certification_status"`
	CurrentLatitude     *float64            `json:"currentLatitude,omitempty" db:"current_latitude"`
	CurrentLongitude    *float64            `json:"currentLongitude,omitempty" db:"current_longitude"`
	Rating              float64             `json:"rating" db:"rating"`
	TotalDeliveries     int                 `json:"totalDeliveries" db:"total_deliveries"`
	CreatedAt           time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time           `json:"updatedAt" db:"updated_at"`
}

// Certified reports whether the driver passed compliance review.
func (d *Driver) Certified() bool {
	return d.CertificationStatus == CertificationApproved
}

// CanAcceptDeliveries reports whether the driver may take work: available,
// certified, and linked to an active user account.
func (d *Driver) CanAcceptDeliveries(user *User) bool {
	return d.Available && d.Certified() && user != nil && user.Active
}

// HasLocation reports whether the driver has reported coordinates.
func (d *Driver) HasLocation() bool {
	return d.CurrentLatitude != nil && d.CurrentLongitude != nil
}
