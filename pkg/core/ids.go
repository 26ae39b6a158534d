package core

import (
	"github.com/google/uuid"
)

// NewID generates a random identifier for pools and tasks
func NewID() string {
	return uuid.New().String()
}

// ShortID returns the first segment of id, for log lines
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
