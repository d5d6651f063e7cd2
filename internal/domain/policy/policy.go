// Package policy holds the credential policy: the syntactic rules a login and
// a password must satisfy before anything is hashed or stored.
//
// Validation is pure and deterministic. Every broken rule is reported, in a
// fixed order, so callers can render one precise message per rule.
package policy

import (
	"strings"
	"unicode/utf8"

	domainerrors "signup/internal/domain/errors"
)

const (
	LoginMinLength    = 3
	LoginMaxLength    = 32
	PasswordMinLength = 8

	// SpecialCharacters is the set a password must draw at least one character from.
	SpecialCharacters = `!@#$%^&*(),.?":{}|<>`
)

// Field names as they appear in the request body.
const (
	FieldLogin    = "login"
	FieldPassword = "password"
)

// Rule identifiers.
const (
	RuleLoginLength       = "login_length"
	RuleLoginCharset      = "login_charset"
	RulePasswordLength    = "password_length"
	RulePasswordUppercase = "password_uppercase"
	RulePasswordLowercase = "password_lowercase"
	RulePasswordDigit     = "password_digit"
	RulePasswordSpecial   = "password_special"
)

var messages = map[string]string{
	RuleLoginLength:       "Login must be between 3 and 32 characters long",
	RuleLoginCharset:      "Login must contain only letters, numbers, dots, underscores, or hyphens",
	RulePasswordLength:    "Password must be at least 8 characters long",
	RulePasswordUppercase: "Password must contain at least one uppercase letter",
	RulePasswordLowercase: "Password must contain at least one lowercase letter",
	RulePasswordDigit:     "Password must contain at least one digit",
	RulePasswordSpecial:   "Password must contain at least one special character",
}

// Result is the outcome of a policy check.
type Result struct {
	Violations []domainerrors.Violation
}

// Valid reports whether no rule was broken.
func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Has reports whether the given rule was broken.
func (r Result) Has(rule string) bool {
	for _, v := range r.Violations {
		if v.Rule == rule {
			return true
		}
	}

	return false
}

// Err converts the result into a typed error, or nil when valid.
// Login violations take precedence for the error kind; all violations are kept.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}

	kind := domainerrors.ErrWeakPassword
	for _, v := range r.Violations {
		if v.Field == FieldLogin {
			kind = domainerrors.ErrInvalidLogin

			break
		}
	}

	return domainerrors.NewValidationError(kind, r.Violations)
}

// Validate checks both credentials.
func Validate(login, password string) Result {
	violations := ValidateLogin(login).Violations
	violations = append(violations, ValidatePassword(password).Violations...)

	return Result{Violations: violations}
}

// ValidateLogin checks length and charset of a login.
func ValidateLogin(login string) Result {
	var res Result

	if n := utf8.RuneCountInString(login); n < LoginMinLength || n > LoginMaxLength {
		res.add(FieldLogin, RuleLoginLength)
	}
	if login != "" && !isLoginCharset(login) {
		res.add(FieldLogin, RuleLoginCharset)
	}

	return res
}

// ValidatePassword checks length and the four character classes of a password.
func ValidatePassword(password string) Result {
	var res Result

	if utf8.RuneCountInString(password) < PasswordMinLength {
		res.add(FieldPassword, RulePasswordLength)
	}
	if !strings.ContainsFunc(password, isUpper) {
		res.add(FieldPassword, RulePasswordUppercase)
	}
	if !strings.ContainsFunc(password, isLower) {
		res.add(FieldPassword, RulePasswordLowercase)
	}
	if !strings.ContainsFunc(password, isDigit) {
		res.add(FieldPassword, RulePasswordDigit)
	}
	if !strings.ContainsAny(password, SpecialCharacters) {
		res.add(FieldPassword, RulePasswordSpecial)
	}

	return res
}

// Message returns the human-readable text for a rule.
func Message(rule string) string {
	return messages[rule]
}

func (r *Result) add(field, rule string) {
	r.Violations = append(r.Violations, domainerrors.Violation{
		Field:   field,
		Rule:    rule,
		Message: messages[rule],
	})
}

func isLoginCharset(s string) bool {
	for _, c := range s {
		if !isUpper(c) && !isLower(c) && !isDigit(c) && c != '.' && c != '_' && c != '-' {
			return false
		}
	}

	return true
}

// Character classes are ASCII only.
func isUpper(c rune) bool { return c >= 'A' && c <= 'Z' }
func isLower(c rune) bool { return c >= 'a' && c <= 'z' }
func isDigit(c rune) bool { return c >= '0' && c <= '9' }
