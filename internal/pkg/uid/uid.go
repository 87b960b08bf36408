// Package uid provides ID generation for entities and correlation.
package uid

// NumberID generates int64 identifiers, used as primary keys.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers, used for correlation IDs and
// message keys.
type StringID interface {
	Generate() string
}
