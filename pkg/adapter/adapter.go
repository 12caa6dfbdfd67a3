// Package adapter defines the one-method contract every input-format
// reader implements: turn raw bytes into rows of string fields, doing no
// normalization and no hashing. Concrete formats live in sibling packages
// (csvfmt, tsvfmt, jsonfmt, xmlfmt).
package adapter

// Adapter parses raw bytes into rows of string fields in source order.
// Implementations never normalize or hash field values, and never raise on
// a malformed individual cell; JSON and XML adapters do surface a parse
// failure of the whole document as an error.
type Adapter interface {
	Parse(data []byte) ([][]string, error)
}
