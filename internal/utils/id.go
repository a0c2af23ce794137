package utils

import "github.com/google/uuid"

// NewID returns a random connection identifier.
func NewID() string {
	return uuid.NewString()
}

// ShortID returns the first n characters of id, or id itself when shorter.
func ShortID(id string, n int) string {
	if n <= 0 || len(id) <= n {
		return id
	}
	return id[:n]
}
