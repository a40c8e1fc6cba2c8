package domain

import "time"

// OTP record states. Expired is never stored; it is derived from ExpiresAt.
const (
	OTPPending  = "pending"
	OTPConsumed = "consumed"
	OTPExpired  = "expired"
)

// OTPRecord is one entry of the OTP ledger.
// PK: email, SK: otp_id (ULID, so newer records sort last).
type OTPRecord struct {
	OTPID      string     `json:"id" dynamodbav:"otp_id" bson:"_id"`
	Email      string     `json:"email" dynamodbav:"email" bson:"email"`
	OTP        string     `json:"-" dynamodbav:"otp" bson:"otp"`
	Status     string     `json:"status" dynamodbav:"status" bson:"status"`
	ExpiresAt  time.Time  `json:"expires_at" dynamodbav:"expires_at" bson:"expires_at"`
	CreatedAt  time.Time  `json:"created" dynamodbav:"created_at" bson:"created_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" dynamodbav:"consumed_at,omitempty" bson:"consumed_at,omitempty"`
}

// State reports pending, consumed or expired as of now.
func (r *OTPRecord) State(now time.Time) string {
	if now.After(r.ExpiresAt) {
		return OTPExpired
	}
	if r.Status == OTPConsumed {
		return OTPConsumed
	}
	return OTPPending
}
