package domain

import "time"

// AccessToken is an opaque bearer credential issued after OTP verification.
// PK: token.
type AccessToken struct {
	Token     string    `json:"access_token" dynamodbav:"token" bson:"token"`
	Email     string    `json:"email" dynamodbav:"email" bson:"email"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at" bson:"created_at"`
}

// Valid tells if the token has not yet expired at now.
func (t *AccessToken) Valid(now time.Time) bool {
	return !now.After(t.ExpiresAt)
}
