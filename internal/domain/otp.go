package domain

// OTP is a one-time passcode proving control of an email address during
// registration. PK: account_id, SK: code — several outstanding codes for the
// same account may coexist, and verification matches the exact pair.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL; TTL purge is lazy, so
// lookups must also check expiry themselves.
type OTP struct {
	AccountID string `json:"account_id" dynamodbav:"account_id"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}
