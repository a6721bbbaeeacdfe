package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeSpan covers [100000, 999999] so every code is exactly six digits.
const (
	codeMin  = 100000
	codeSpan = 900000
)

// NewCode generates a uniformly random 6-digit numeric passcode.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", codeMin+n.Int64()), nil
}
