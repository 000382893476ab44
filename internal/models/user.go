package models

import (
	"github.com/google/uuid"
)

const defaultDisplayName = "Staff"

type SubscriptionStatus string

const (
	SubscriptionActive SubscriptionStatus = "active"
)

type Tenant struct {
	ID                 uuid.UUID          `db:"id"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status"`
}

// User is a staff member allowed to submit receipts over WhatsApp.
type User struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	Name        string    `db:"name"`
	PhoneNumber string    `db:"phone_number"`
	Tenant      Tenant    `db:"-"`
}

// DisplayName is the name used when greeting the user.
func (u *User) DisplayName() string {
	if u.Name == "" {
		return defaultDisplayName
	}
	return u.Name
}

// Entitled reports whether the user's tenant has an active subscription.
func (u *User) Entitled() bool {
	return u.Tenant.SubscriptionStatus == SubscriptionActive
}
