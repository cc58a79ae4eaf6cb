package models

import "time"

// PaymentStatus enumerates the account payment states.
type PaymentStatus string

const (
	PaymentStatusNotPaid PaymentStatus = "not_paid"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// User is an account. Username doubles as the phone number. DeviceID is nil
// until the first successful login binds a device; once set it is unique
// across all accounts. TokenVersion only ever increases — bumping it revokes
// every token issued before the bump.
type User struct {
	ID            int64         `db:"id" json:"id"`
	Username      string        `db:"username" json:"username"`
	PhoneNumber   string        `db:"phone_number" json:"phoneNumber"`
	PasswordHash  string        `db:"password_hash" json:"-"`
	FirstName     string        `db:"first_name" json:"firstName"`
	LastName      string        `db:"last_name" json:"lastName"`
	DeviceID      *string       `db:"device_id" json:"deviceId,omitempty"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`
	TokenVersion  int64         `db:"token_version" json:"-"`
	IsStaff       bool          `db:"is_staff" json:"-"`
	IsActive      bool          `db:"is_active" json:"-"`
	CreatedAt     time.Time     `db:"created_at" json:"-"`
	UpdatedAt     time.Time     `db:"updated_at" json:"-"`
}
