package auth

import (
	"strings"
	"unicode"
)

// passwordRule is one complexity requirement for the operator password.
type passwordRule struct {
	message string
	ok      func(string) bool
}

// The operator account is the only credential guarding mutating plant
// controls, so the password must clear every rule below before it is
// hashed into the server config.
var passwordRules = []passwordRule{
	{"password must be at least 12 characters", func(p string) bool {
		return len(p) >= 12
	}},
	{"password must contain at least 1 uppercase letter", func(p string) bool {
		return strings.ContainsFunc(p, unicode.IsUpper)
	}},
	{"password must contain at least 1 lowercase letter", func(p string) bool {
		return strings.ContainsFunc(p, unicode.IsLower)
	}},
	{"password must contain at least 1 digit", func(p string) bool {
		return strings.ContainsFunc(p, unicode.IsDigit)
	}},
	{"password must contain at least 1 special character (!@#$%^&*...)", func(p string) bool {
		return strings.ContainsFunc(p, isSpecialChar)
	}},
}

// PasswordValidationError lists every rule the candidate password broke.
type PasswordValidationError struct {
	Messages []string
}

func (e *PasswordValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ValidatePassword checks a candidate operator password against the
// complexity rules. The returned error reports all failed rules at
// once so the operator fixes the password in one round trip.
func ValidatePassword(password string) error {
	var messages []string
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			messages = append(messages, rule.message)
		}
	}
	if len(messages) > 0 {
		return &PasswordValidationError{Messages: messages}
	}
	return nil
}

func isSpecialChar(r rune) bool {
	return strings.ContainsRune("!@#$%^&*()-_=+[]{}|;:',.<>?/`~\"\\", r)
}
