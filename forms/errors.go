// Package forms holds the inline error taxonomy shared by the console forms.
package forms

// Kind distinguishes inline field errors. Connectivity failures are never
// field errors; they are published as notifications instead.
type Kind string

const (
	// KindValidation is a local check that never reached the server.
	KindValidation Kind = "validation"
	// KindConflict is a 400-class server answer about the field.
	KindConflict Kind = "conflict"
)

// FieldError is an error shown next to the offending field. Key is a
// translation key.
type FieldError struct {
	Field string
	Kind  Kind
	Key   string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Key
}

// Validation returns a local field error.
func Validation(field, key string) *FieldError {
	return &FieldError{Field: field, Kind: KindValidation, Key: key}
}

// Conflict returns a server-reported field error.
func Conflict(field, key string) *FieldError {
	return &FieldError{Field: field, Kind: KindConflict, Key: key}
}
