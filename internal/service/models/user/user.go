package user

import "github.com/google/uuid"

// User is the owner projection attached to orders on reads.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}
