package utils

import "github.com/google/uuid"

// IsUUID reports whether s is a canonical UUID. Path ids that fail this never exist.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
