package util

import (
	"github.com/google/uuid"
)

const abbreviatedUUIDPrefixLength = 8

// NewRequestID returns a random identifier used to correlate the logs of one mix run.
func NewRequestID() string {
	return uuid.NewString()
}

// IsValidUUID checks if a string is a valid UUID.
func IsValidUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// AbbreviateUUID returns a shortened representation of a UUID suitable for status lines.
// When the value is not a UUID, the original value is returned unchanged.
func AbbreviateUUID(id string) string {
	if !IsValidUUID(id) {
		return id
	}
	return id[:abbreviatedUUIDPrefixLength] + "…"
}
