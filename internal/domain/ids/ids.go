// Package ids generates and checks the public identifiers of events.
package ids

import (
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
)

var ErrInvalidULID = errors.New("invalid ULID")

// NewULID returns a fresh, lexically sortable identifier. IDs generated in
// the same millisecond are monotonic.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Now(), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsULID reports whether value is a well formed ULID in either case.
func IsULID(value string) bool {
	_, err := ulid.ParseStrict(strings.TrimSpace(value))
	return err == nil
}

func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}

// NormalizeULID returns the stored upper-case form.
func NormalizeULID(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
