package engine

import "github.com/google/uuid"

// generateID creates a random id for sessions and records.
func generateID() string {
	return uuid.NewString()
}
