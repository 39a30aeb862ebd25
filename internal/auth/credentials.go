package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CredentialChecker validates operator credentials at login time.
type CredentialChecker interface {
	Check(password string) bool
}

// StaticChecker checks the operator password against a bcrypt hash
// when one is configured, falling back to a constant-time comparison
// with a plain shared secret for dev setups. With neither configured
// it accepts nothing.
type StaticChecker struct {
	hash  string
	plain string
}

func NewStaticChecker(hash, plain string) *StaticChecker {
	return &StaticChecker{hash: hash, plain: plain}
}

func (c *StaticChecker) Check(password string) bool {
	if password == "" {
		return false
	}
	if c.hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(c.hash), []byte(password)) == nil
	}
	if c.plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.plain), []byte(password)) == 1
}
