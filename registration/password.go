package registration

import "unicode/utf8"

// DefaultPasswordMinLength applies when the console config sets none.
const DefaultPasswordMinLength = 8

const (
	keyPasswordMismatch = "profile.register-password-error-not-match"
	keyPasswordTooShort = "profile.register-password-ph"
)

// CheckPassword validates a password and its confirmation. It returns a
// translation key describing the problem, or "" when both fields are empty or
// the password is acceptable. The too-short key expects a "car" parameter.
func CheckPassword(password, confirm string, minLength int) string {
	if minLength <= 0 {
		minLength = DefaultPasswordMinLength
	}
	if password == "" && confirm == "" {
		return ""
	}
	if password != confirm {
		return keyPasswordMismatch
	}
	if utf8.RuneCountInString(password) < minLength {
		return keyPasswordTooShort
	}
	return ""
}

// passwordReady reports whether the password fields hold a password that
// should be sent to the server.
func passwordReady(password, confirm string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultPasswordMinLength
	}
	return CheckPassword(password, confirm, minLength) == "" &&
		utf8.RuneCountInString(password) >= minLength
}
