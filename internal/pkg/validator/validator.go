// Package validator wraps go-playground/validator behind a small interface.
package validator

// Validator validates tagged structs and returns a field-level error map
// on failure.
type Validator interface {
	Validate(data any) error
}
