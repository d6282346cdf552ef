package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a system role held by a user. A user may hold several roles, but
// never DRIVER and MERCHANT_ADMIN together.
type Role string

const (
	RoleCustomer      Role = "CUSTOMER"
	RoleDriver        Role = "DRIVER"
	RoleMerchantAdmin Role = "MERCHANT_ADMIN"
	RoleAdmin         Role = "ADMIN"
)

// User is an authenticated actor: customer, driver, merchant admin or admin.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Email       string     `json:"email" db:"email"`
	Phone       string     `json:"phone,omitempty" db:"phone"`
	AgeVerified bool       `json:"ageVerified" db:"age_verified"`
	Active      bool       `json:"active" db:"active"`
	Roles       []Role     `json:"roles" db:"-"`
	MerchantID  *uuid.UUID `json:"merchantId,omitempty" db:"merchant_id"`
	DriverID    *uuid.UUID `json:"driverId,omitempty" db:"driver_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// OwnsMerchant reports whether the user administers the given merchant.
func (u *User) OwnsMerchant(merchantID uuid.UUID) bool {
	return u.MerchantID != nil && *u.MerchantID == merchantID
}
